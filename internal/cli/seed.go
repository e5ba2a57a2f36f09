package cli

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/fiscal-engine/internal/bootstrap"
)

// NewSeedCommand carga el catálogo YAML de clientes, productos e impuestos.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "seed <catalog.yaml>",
		Short:        "Cargar el catálogo de referencia",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			catalog, err := bootstrap.ParseCatalog(f)
			if err != nil {
				return err
			}

			s, err := rootOpts.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			res, err := bootstrap.Seed(cmd.Context(), s.backend, catalog, time.Now().UTC())
			if err != nil {
				return err
			}
			s.log.Info().Int("customers", res.Customers).Int("products", res.Products).Int("tax_rates", res.TaxRates).Msg("catálogo cargado")
			return newFormatter(rootOpts, cmd.OutOrStdout()).Emit(res, func(w io.Writer) {
				printf(w, "clientes: %d, productos: %d, impuestos: %d\n", res.Customers, res.Products, res.TaxRates)
			})
		},
	}
}
