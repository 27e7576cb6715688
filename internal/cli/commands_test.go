package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintrack/internal/config"
	"maintrack/internal/core"
	"maintrack/internal/log"
	"maintrack/internal/storage"
)

func runAdmin(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	logger := log.New(log.Config{Output: io.Discard})
	cmd := NewAdminCmd(&config.Config{SQLiteDBPath: dbPath}, logger)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "admin.db")

	out, err := runAdmin(t, db, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1")

	out, err = runAdmin(t, db, "migrate", "down", "--steps", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 0")

	_, err = runAdmin(t, db, "migrate", "down", "--steps", "0")
	assert.Error(t, err)
}

func TestUserCreate(t *testing.T) {
	db := filepath.Join(t.TempDir(), "admin.db")

	out, err := runAdmin(t, db, "user", "create", "--email", "Admin@Example.com", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "created admin user admin@example.com")

	_, err = runAdmin(t, db, "user", "create", "--email", "admin@example.com", "--password", "secret1")
	assert.ErrorIs(t, err, core.ErrDuplicateEmail)

	_, err = runAdmin(t, db, "user", "create", "--email", "m@example.com", "--password", "123")
	assert.ErrorIs(t, err, core.ErrPasswordTooShort)

	_, err = runAdmin(t, db, "user", "create", "--email", "m@example.com")
	assert.Error(t, err, "password flag is required")
}

func TestTenantListAndExport(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "admin.db")
	ctx := context.Background()

	repo, err := storage.NewSQLiteRepository(db)
	require.NoError(t, err)
	alice, err := repo.CreateTenant(ctx, core.Tenant{Name: "Alice", Phone: "555", Status: core.StatusActive, Category: core.CategoryTenant})
	require.NoError(t, err)
	_, err = repo.CreateTenant(ctx, core.Tenant{Name: "Bob", Status: core.StatusInactive, Category: core.CategoryTenant})
	require.NoError(t, err)
	rec, err := repo.CreateRecord(ctx, core.MaintenanceRecord{
		Period:        core.Period{Month: 3, Year: 2024},
		CollectorName: "Vanaja",
		GrandTotal:    100,
		Payments:      []core.Payment{{TenantID: alice.ID, Amount: 100, Status: core.PaymentPaid}},
		Particulars:   []core.Particular{{Name: "Cleaning", Price: 100, Category: core.ParticularService}},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	out, err := runAdmin(t, db, "tenant", "list", "--status", "active")
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "555")
	assert.NotContains(t, out, "Bob")

	outDir := filepath.Join(dir, "out")
	_, err = runAdmin(t, db, "export", "record", rec.ID, "--format", "xlsx", "--out", outDir)
	require.NoError(t, err)
	info, err := os.Stat(filepath.Join(outDir, "maintenance-3-2024.xlsx"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, err = runAdmin(t, db, "export", "all", "--out", outDir)
	require.NoError(t, err)
	pdf, err := os.ReadFile(filepath.Join(outDir, "all-maintenance-records.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, err = runAdmin(t, db, "export", "record", rec.ID, "--format", "odt", "--out", outDir)
	assert.Error(t, err)

	_, err = runAdmin(t, db, "export", "record", "missing", "--out", outDir)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
