package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/fiscal-engine/internal/application/dto"
	"github.com/jhoicas/fiscal-engine/internal/infrastructure/saft"
)

// ErrVerificationFailed la cadena o el archivo no superaron la verificación.
var ErrVerificationFailed = errors.New("verificación fallida")

// NewVerifyChainCommand verifica la cadena almacenada de una serie.
func NewVerifyChainCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "verify-chain [series]",
		Short:        "Verificar la cadena de hashes de una serie (por defecto la de facturas)",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			svc, err := s.services()
			if err != nil {
				return err
			}
			series := s.cfg.Fiscal.InvoiceSeries
			if len(args) == 1 {
				series = args[0]
			}
			report, err := svc.Verification.VerifyChain(cmd.Context(), series)
			if err != nil {
				return err
			}

			out := dto.FromChainReport(report)
			err = newFormatter(rootOpts, cmd.OutOrStdout()).Emit(out, func(w io.Writer) {
				status := "ÍNTEGRA"
				if !out.Valid {
					status = "QUEBRADA"
				}
				printf(w, "serie %s: %d documentos, cadena %s\n", out.Series, out.Documents, status)
				for _, b := range out.Breaks {
					printf(w, "  %s %s: esperado %s, almacenado %s\n", b.DocumentID, b.Field, b.Expected, b.Actual)
				}
			})
			if err != nil {
				return err
			}
			if !report.Valid {
				return fmt.Errorf("serie %s: %w", series, ErrVerificationFailed)
			}
			return nil
		},
	}
}

// FileResult salida de verify-file.
type FileResult struct {
	File       string           `json:"file"`
	CompanyID  string           `json:"company_id"`
	Invoices   int              `json:"invoices"`
	Verified   int              `json:"verified"`
	Unanchored int              `json:"unanchored"`
	Valid      bool             `json:"valid"`
	Breaks     []saft.LinkBreak `json:"breaks,omitempty"`
}

// NewVerifyFileCommand relee un SAF-T exportado y recalcula los hashes que contiene.
func NewVerifyFileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "verify-file <saft.xml>",
		Short:        "Verificar los hashes de un SAF-T exportado",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			file, err := saft.ReadAuditFile(f)
			if err != nil {
				return err
			}
			report := saft.VerifyHashes(file)
			res := FileResult{
				File:       args[0],
				CompanyID:  file.CompanyID,
				Invoices:   report.Invoices,
				Verified:   report.Verified,
				Unanchored: report.Unanchored,
				Valid:      report.Valid(),
				Breaks:     report.Breaks,
			}
			err = newFormatter(rootOpts, cmd.OutOrStdout()).Emit(res, func(w io.Writer) {
				printf(w, "%s: %d facturas, %d verificadas, %d sin anclar\n", res.File, res.Invoices, res.Verified, res.Unanchored)
				for _, b := range res.Breaks {
					printf(w, "  %s: esperado %s, en archivo %s\n", b.InvoiceNo, b.Expected, b.Actual)
				}
			})
			if err != nil {
				return err
			}
			if !res.Valid {
				return fmt.Errorf("%s: %w", args[0], ErrVerificationFailed)
			}
			return nil
		},
	}
}
