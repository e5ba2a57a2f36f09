package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-engine/internal/application/dto"
	"github.com/jhoicas/fiscal-engine/internal/bootstrap"
	"github.com/jhoicas/fiscal-engine/internal/infrastructure/sqlite"
	"github.com/jhoicas/fiscal-engine/pkg/config"
	"github.com/jhoicas/fiscal-engine/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers: base SQLite en un directorio temporal compartida entre comandos
// ──────────────────────────────────────────────────────────────────────────────

func testConfig(dbPath string) *config.Config {
	return &config.Config{Fiscal: config.FiscalConfig{
		CountryCode:         "CV",
		EmitterNIF:          "123456789",
		CompanyName:         "Morabeza Lda",
		Currency:            "CVE",
		SoftwareCertificate: "0",
		SoftwareVersion:     "1.0.0",
		ProductID:           "FiscalEngine",
		InvoiceSeries:       "A",
		CreditNoteSeries:    "NC",
		Storage:             config.StorageSQLite,
		SQLitePath:          dbPath,
	}}
}

func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(func() (*config.Config, error) { return testConfig(dbPath), nil })
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// sealSales sella n ventas de 115.00 con fecha 2025-01-01 en la serie A.
func sealSales(t *testing.T, dbPath string, n int) {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	backend := bootstrap.NewSQLiteBackend(store)
	defer backend.Close()

	svc, err := bootstrap.NewServices(testConfig(dbPath).Fiscal, backend, nil, zerolog.Nop())
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		draft, err := svc.Documents.CreateDraft(ctx, dto.CreateDraftRequest{
			IssueDate: "2025-01-01",
			Lines: []dto.DraftLineRequest{{
				ProductCode:   "CAFE",
				Description:   "Café torrado",
				Quantity:      decimal.NewFromInt(2),
				UnitPrice:     decimal.NewFromInt(50),
				TaxPercentage: decimal.NewFromInt(15),
			}},
		})
		require.NoError(t, err)
		_, err = svc.Signer.Sign(ctx, draft.ID)
		require.NoError(t, err)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Estructura de comandos
// ──────────────────────────────────────────────────────────────────────────────

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "fiscalctl", cmd.Use)

	for _, name := range []string{"migrate", "seed", "export", "verify-chain", "verify-file", "token"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "el comando %s debe existir", name)
			assert.Equal(t, name, sub.Name())
		})
	}

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestFormatoInvalido(t *testing.T) {
	_, err := run(t, filepath.Join(t.TempDir(), "f.db"), "migrate", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "formato inválido")
}

// ──────────────────────────────────────────────────────────────────────────────
// migrate / seed
// ──────────────────────────────────────────────────────────────────────────────

func TestMigrateYSeed(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "fiscal.db")

	out, err := run(t, db, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "esquema al día (sqlite)")

	catalog := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(`
customers:
  - tax_id: "100000001"
    name: Alfa Lda
products:
  - code: CAFE
    description: Café torrado
    price: "50"
`), 0o644))

	out, err = run(t, db, "seed", catalog, "--format", "json")
	require.NoError(t, err)
	var res bootstrap.SeedResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Customers)
	assert.Equal(t, 1, res.Products)

	_, err = run(t, db, "seed", filepath.Join(dir, "no-existe.yaml"))
	assert.Error(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// export / verify-file / verify-chain
// ──────────────────────────────────────────────────────────────────────────────

func TestExportYVerifyFile(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "fiscal.db")
	sealSales(t, db, 3)

	outDir := filepath.Join(dir, "out")
	out, err := run(t, db, "export", "--start", "2025-01-01", "--end", "2025-01-31", "-o", outDir, "--format", "json")
	require.NoError(t, err)
	var res ExportResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 3, res.Documents)
	assert.Equal(t, filepath.Join(outDir, "SAFT_CV_123456789_2025-01-01_2025-01-31.xml"), res.File)
	assert.Len(t, res.Digest, 64)

	out, err = run(t, db, "verify-file", res.File, "--format", "json")
	require.NoError(t, err)
	var file FileResult
	require.NoError(t, json.Unmarshal([]byte(out), &file))
	assert.True(t, file.Valid)
	assert.Equal(t, 3, file.Verified)
	assert.Equal(t, "123456789", file.CompanyID)

	// Alterar el total de una factura rompe su eslabón.
	content, err := os.ReadFile(res.File)
	require.NoError(t, err)
	tampered := strings.Replace(string(content), "<GrossTotal>115.00</GrossTotal>", "<GrossTotal>116.00</GrossTotal>", 1)
	require.NotEqual(t, string(content), tampered)
	bad := filepath.Join(dir, "tampered.xml")
	require.NoError(t, os.WriteFile(bad, []byte(tampered), 0o644))

	out, err = run(t, db, "verify-file", bad)
	require.ErrorIs(t, err, ErrVerificationFailed)
	assert.Contains(t, out, "FR A/1")
}

func TestExport_FechasInvalidas(t *testing.T) {
	db := filepath.Join(t.TempDir(), "fiscal.db")

	_, err := run(t, db, "export", "--start", "01/01/2025", "--end", "2025-01-31")
	assert.Error(t, err)

	_, err = run(t, db, "export", "--start", "2025-02-01", "--end", "2025-01-01")
	assert.Error(t, err, "rango invertido")

	_, err = run(t, db, "export", "--end", "2025-01-31")
	assert.Error(t, err, "--start es obligatorio")
}

func TestVerifyChain(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "fiscal.db")
	sealSales(t, db, 2)

	out, err := run(t, db, "verify-chain")
	require.NoError(t, err)
	assert.Contains(t, out, "serie A: 2 documentos, cadena ÍNTEGRA")

	store, err := sqlite.Open(db)
	require.NoError(t, err)
	_, err = store.DB().Exec(`UPDATE fiscal_documents SET grand_total = '999.00' WHERE sequence_number = 2 AND series = 'A'`)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, err = run(t, db, "verify-chain", "A")
	require.ErrorIs(t, err, ErrVerificationFailed)
	assert.Contains(t, out, "QUEBRADA")
	assert.Contains(t, out, "chainHash")
}

// ──────────────────────────────────────────────────────────────────────────────
// token
// ──────────────────────────────────────────────────────────────────────────────

func TestToken(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "t.db"))
	cfg.JWT = config.JWTConfig{Secret: "cli-secret", Expiration: 30, Issuer: "fiscal-engine"}
	load := func() (*config.Config, error) { return cfg, nil }

	exec := func(args ...string) (string, error) {
		cmd := newRootCommand(load)
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	out, err := exec("token", "--role", "vendedor", "--user", "u-7", "--format", "json")
	require.NoError(t, err)
	var res TokenResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	id, err := jwt.Parse("cli-secret", res.Token, jwt.WithIssuer("fiscal-engine"))
	require.NoError(t, err)
	assert.Equal(t, jwt.Identity{UserID: "u-7", CompanyID: "123456789", Role: "vendedor"}, id)

	_, err = exec("token", "--role", "root")
	assert.ErrorContains(t, err, "rol inválido")

	cfg.JWT.Secret = ""
	_, err = exec("token")
	assert.ErrorContains(t, err, "JWT_SECRET")
}
