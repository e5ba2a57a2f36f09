package saft

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"

	"github.com/jhoicas/fiscal-engine/internal/application/billing"
)

var _ billing.ArchivePackager = (*ZipPackager)(nil)

// ZipPackager empaqueta el XML en un ZIP de una sola entrada.
type ZipPackager struct{}

// NewZipPackager crea el empaquetador.
func NewZipPackager() *ZipPackager { return &ZipPackager{} }

// Package comprime content como entryName con fecha de modificación fija,
// de modo que el ZIP también sea reproducible.
func (p *ZipPackager) Package(entryName string, content []byte, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     entryName,
		Method:   zip.Deflate,
		Modified: modified.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("zip: crear entrada %s: %w", entryName, err)
	}
	if _, err := fw.Write(content); err != nil {
		return nil, fmt.Errorf("zip: escribir XML: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}
