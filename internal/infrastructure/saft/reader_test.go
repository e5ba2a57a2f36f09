package saft_test

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-engine/internal/domain/entity"
	"github.com/jhoicas/fiscal-engine/internal/infrastructure/saft"
)

func TestReadAuditFile_VerificaCadena(t *testing.T) {
	enc, err := saft.NewEncoder("")
	require.NoError(t, err)
	out, err := enc.Encode(sampleData())
	require.NoError(t, err)

	file, err := saft.ReadAuditFile(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "123456789", file.CompanyID)
	assert.Equal(t, 2, file.Customers)
	assert.Equal(t, 1, file.FinalConsumerCount)
	require.Len(t, file.Invoices, 3)
	assert.Equal(t, "A", file.Invoices[0].Series)
	assert.Equal(t, int64(1), file.Invoices[0].Sequence)

	report := saft.VerifyHashes(file)
	assert.True(t, report.Valid(), "breaks: %+v", report.Breaks)
	assert.Equal(t, 3, report.Verified)
	assert.Zero(t, report.Unanchored)
}

func TestReadAuditFile_DetectaManipulacion(t *testing.T) {
	enc, err := saft.NewEncoder("")
	require.NoError(t, err)
	out, err := enc.Encode(sampleData())
	require.NoError(t, err)

	tampered := strings.Replace(string(out), "<GrossTotal>230.00</GrossTotal>", "<GrossTotal>23.00</GrossTotal>", 1)
	require.NotEqual(t, string(out), tampered)

	file, err := saft.ReadAuditFile(strings.NewReader(tampered))
	require.NoError(t, err)
	report := saft.VerifyHashes(file)
	require.False(t, report.Valid())
	assert.Equal(t, "FR A/2", report.Breaks[0].InvoiceNo)
}

func TestReadAuditFile_Windows1252(t *testing.T) {
	enc, err := saft.NewEncoder("Windows-1252")
	require.NoError(t, err)
	out, err := enc.Encode(sampleData())
	require.NoError(t, err)

	file, err := saft.ReadAuditFile(bytes.NewReader(out))
	require.NoError(t, err)
	assert.True(t, saft.VerifyHashes(file).Valid())
}

func TestReadAuditFile_Windows1252PrimerAcentoLejos(t *testing.T) {
	data := sampleData()
	for i := 0; i < 40; i++ {
		id := fmt.Sprintf("3%08d", i)
		data.Customers = append(data.Customers, &entity.Customer{ID: id, TaxID: id, Name: "Cliente Praia " + id})
	}
	enc, err := saft.NewEncoder("Windows-1252")
	require.NoError(t, err)
	out, err := enc.Encode(data)
	require.NoError(t, err)

	firstHigh := bytes.IndexFunc(out, func(r rune) bool { return r > 0x7F || r == '\uFFFD' })
	require.Greater(t, firstHigh, 4096, "el primer byte no ASCII debe quedar fuera del peek")

	file, err := saft.ReadAuditFile(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 42, file.Customers)
	report := saft.VerifyHashes(file)
	assert.True(t, report.Valid(), "breaks: %+v", report.Breaks)
	assert.Equal(t, 3, report.Verified)
}

func TestReadAuditFile_CharsetDeclaradoNoSoportado(t *testing.T) {
	_, err := saft.ReadAuditFile(strings.NewReader(`<?xml version="1.0" encoding="EBCDIC-US"?><AuditFile/>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "charset no soportado")
}

func TestReadAuditFile_SinAncla(t *testing.T) {
	data := sampleData()
	data.Documents = data.Documents[1:] // falta A/1
	enc, err := saft.NewEncoder("")
	require.NoError(t, err)
	out, err := enc.Encode(data)
	require.NoError(t, err)

	file, err := saft.ReadAuditFile(bytes.NewReader(out))
	require.NoError(t, err)
	report := saft.VerifyHashes(file)
	assert.True(t, report.Valid())
	assert.Equal(t, 1, report.Unanchored)
	assert.Equal(t, 1, report.Verified)
}

func TestReadAuditFile_Invalido(t *testing.T) {
	_, err := saft.ReadAuditFile(strings.NewReader("<Otro/>"))
	assert.Error(t, err)

	_, err = saft.ReadAuditFile(strings.NewReader(`<AuditFile><SourceDocuments><SalesInvoices><Invoice><InvoiceNo>sin-numero</InvoiceNo></Invoice></SalesInvoices></SourceDocuments></AuditFile>`))
	assert.Error(t, err)
}

func TestZipPackager(t *testing.T) {
	content := []byte("<AuditFile/>")
	p := saft.NewZipPackager()

	a, err := p.Package("SAFT.xml", content, rangeEnd)
	require.NoError(t, err)
	b, err := p.Package("SAFT.xml", content, rangeEnd)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b), "el ZIP debe ser reproducible")

	zr, err := zip.NewReader(bytes.NewReader(a), int64(len(a)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "SAFT.xml", zr.File[0].Name)
	assert.True(t, zr.File[0].Modified.Equal(rangeEnd))

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}
