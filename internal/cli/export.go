package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/fiscal-engine/internal/application/billing"
)

// ExportOptions flags de export.
type ExportOptions struct {
	Start  string
	End    string
	Output string // archivo: zip | xml
	Dir    string
}

// ExportResult salida de export.
type ExportResult struct {
	File      string `json:"file"`
	Digest    string `json:"sha256"`
	Documents int    `json:"documents"`
	Bytes     int    `json:"bytes"`
}

// NewExportCommand genera el SAF-T de un período y lo escribe en --dir.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{}
	cmd := &cobra.Command{
		Use:          "export",
		Short:        "Exportar el SAF-T de un período",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Start, "start", "", "fecha inicial YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.End, "end", "", "fecha final YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&opts.Output, "type", string(billing.ExportXML), "tipo de archivo (xml|zip)")
	cmd.Flags().StringVarP(&opts.Dir, "dir", "o", ".", "directorio de salida")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func runExport(rootOpts *RootOptions, opts *ExportOptions, cmd *cobra.Command) error {
	start, err := time.Parse("2006-01-02", opts.Start)
	if err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	end, err := time.Parse("2006-01-02", opts.End)
	if err != nil {
		return fmt.Errorf("--end: %w", err)
	}

	s, err := rootOpts.open(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	svc, err := s.services()
	if err != nil {
		return err
	}
	art, err := svc.Exporter.Export(cmd.Context(), start, end, billing.ExportFormat(opts.Output))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(opts.Dir, art.Filename)
	if err := os.WriteFile(path, art.Content, 0o644); err != nil {
		return fmt.Errorf("escribir %s: %w", path, err)
	}

	res := ExportResult{File: path, Digest: art.Digest, Documents: art.Documents, Bytes: len(art.Content)}
	return newFormatter(rootOpts, cmd.OutOrStdout()).Emit(res, func(w io.Writer) {
		printf(w, "%s\n  documentos: %d\n  sha256: %s\n", res.File, res.Documents, res.Digest)
	})
}
