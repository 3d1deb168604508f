package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-normalizer/config"
	"rental-normalizer/models"
	"rental-normalizer/storage"
	"rental-normalizer/utils"
)

const sheet = "Property Address,Unit,Zip Code,Bedrooms,Rent,Amenities\n" +
	"123 Main St,4,90012,2,\"$1,850\",\"dishwasher, pool\"\n" +
	"500 Oak Ave,,90026,1,1200,\n"

func newTestApp(store storage.ListingStore) *App {
	app := NewApp(&config.Config{
		StoreDriver:      config.DriverMemory,
		MaxConcurrency:   1,
		MaxRetries:       1,
		ReprocessWorkers: 2,
	})
	app.Logger = utils.NopLogger()
	app.Store = store
	return app
}

func execute(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(app)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSheet(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sheet.csv")
	require.NoError(t, os.WriteFile(path, []byte(sheet), 0o644))
	return path
}

func TestIngestFavoriteAndExport(t *testing.T) {
	store := storage.NewMemoryStore()
	app := newTestApp(store)
	id := models.UnitID("123 Main St", "4", "90012")

	out, err := execute(t, app, "ingest", writeSheet(t))
	require.NoError(t, err)
	assert.Contains(t, out, "2 rows, 2 inserted")

	out, err = execute(t, app, "favorite", id)
	require.NoError(t, err)
	assert.Equal(t, id+" marked\n", out)

	out, err = execute(t, app, "favorites")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "$1850")

	out, err = execute(t, app, "export", "-")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3)

	_, err = execute(t, app, "favorite", id, "--off")
	require.NoError(t, err)
	out, err = execute(t, app, "favorites")
	require.NoError(t, err)
	assert.Equal(t, "No favorites.\n", out)
}

func TestExportToFile(t *testing.T) {
	app := newTestApp(storage.NewMemoryStore())
	_, err := execute(t, app, "ingest", writeSheet(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "listings.csv")
	_, err = execute(t, app, "export", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "123 Main St")
}

func TestReprocessAndReport(t *testing.T) {
	app := newTestApp(storage.NewMemoryStore())
	_, err := execute(t, app, "ingest", writeSheet(t))
	require.NoError(t, err)

	out, err := execute(t, app, "reprocess", "--workers", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Scanned 2: 0 updated, 2 unchanged, 0 failed")

	out, err = execute(t, app, "report")
	require.NoError(t, err)
	assert.Contains(t, out, "Total listings : \033[1m2")
}

func TestFavoriteUnknownID(t *testing.T) {
	_, err := execute(t, newTestApp(storage.NewMemoryStore()), "favorite", "nope")
	assert.EqualError(t, err, `no listing with id "nope"`)
}

func TestClearNeedsConfirmation(t *testing.T) {
	app := newTestApp(storage.NewMemoryStore())
	_, err := execute(t, app, "ingest", writeSheet(t))
	require.NoError(t, err)

	_, err = execute(t, app, "clear")
	assert.Error(t, err)

	out, err := execute(t, app, "clear", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "Removed 2 listings\n", out)
}

func TestOpenStoreDrivers(t *testing.T) {
	ctx := context.Background()

	mem, err := openStore(ctx, &config.Config{StoreDriver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryStore{}, mem)

	path := filepath.Join(t.TempDir(), "nested", "listings.db")
	lite, err := openStore(ctx, &config.Config{StoreDriver: config.DriverSQLite, SQLitePath: path})
	require.NoError(t, err)
	assert.IsType(t, &storage.SQLiteStore{}, lite)
	require.NoError(t, lite.Close())

	_, err = openStore(ctx, &config.Config{StoreDriver: "mongo"})
	assert.Error(t, err)
}

func TestSetupRejectsBadConfig(t *testing.T) {
	app := NewApp(&config.Config{StoreDriver: "mongo", MaxConcurrency: 1, MaxRetries: 1, ReprocessWorkers: 1})
	app.Logger = utils.NopLogger()
	_, err := execute(t, app, "favorites")
	assert.ErrorContains(t, err, "STORE_DRIVER")
}
