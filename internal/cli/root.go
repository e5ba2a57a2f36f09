// Package cli comandos de fiscalctl: esquema, catálogo, exportación SAF-T, verificación y tokens de operador.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jhoicas/fiscal-engine/internal/bootstrap"
	"github.com/jhoicas/fiscal-engine/pkg/config"
	"github.com/jhoicas/fiscal-engine/pkg/logger"
)

// RootOptions flags globales.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	loadConfig func() (*config.Config, error)
}

// ValidFormats formatos de salida admitidos.
var ValidFormats = []string{"text", "json"}

// NewRootCommand crea el comando raíz con la configuración de entorno (config.Load).
func NewRootCommand() *cobra.Command {
	return newRootCommand(config.Load)
}

func newRootCommand(load func() (*config.Config, error)) *cobra.Command {
	opts := &RootOptions{loadConfig: load}

	cmd := &cobra.Command{
		Use:           "fiscalctl",
		Short:         "fiscalctl - motor fiscal SAF-T CV",
		SilenceErrors: true,
		Long:          "Administración del motor fiscal: esquema, catálogo de referencia, exportación SAF-T y verificación de la cadena de hashes.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("formato inválido %q: debe ser uno de %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log detallado en stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "formato de salida (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewVerifyChainCommand(opts))
	cmd.AddCommand(NewVerifyFileCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// session configuración, logger y backend abiertos para un comando.
type session struct {
	cfg     *config.Config
	log     *logger.Logger
	backend *bootstrap.Backend
}

func (o *RootOptions) open(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("cargar configuración: %w", err)
	}
	level := "warn"
	if o.Verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Env: "development", Level: level, Out: cmd.ErrOrStderr(), Emitter: cfg.Fiscal.EmitterNIF})

	backend, err := bootstrap.OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("storage", backend.Kind).Msg("backend abierto")
	return &session{cfg: cfg, log: log, backend: backend}, nil
}

func (s *session) Close() { s.backend.Close() }

func (s *session) services() (*bootstrap.Services, error) {
	return bootstrap.NewServices(s.cfg.Fiscal, s.backend, nil, s.log.Zerolog())
}
