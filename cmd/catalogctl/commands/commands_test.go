package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"motico-catalog/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command against a file store under dir. Flag
// variables are package state, so every run starts from the defaults.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	envFile, backend, storageDir, actor = ".env", "", "", "cli"
	verbose, jsonOutput = false, false
	force, lowStock, outOfStock, search = false, false, false, ""
	delta, reason, notes, variantID = 0, "", "", ""

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{
		"--env-file", filepath.Join(dir, "missing.env"),
		"--backend", "file",
		"--storage-dir", dir,
	}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func decodeJSON[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestStats_JSON(t *testing.T) {
	out, err := run(t, t.TempDir(), "stats", "--json")
	require.NoError(t, err)

	stats := decodeJSON[domain.DashboardStats](t, out)
	assert.Equal(t, domain.DashboardStats{
		TotalProducts:      6,
		PublishedProducts:  5,
		LowStockProducts:   1,
		OutOfStockProducts: 1,
		TotalCategories:    6,
		TotalBrands:        2,
	}, stats)
}

func TestStats_Table(t *testing.T) {
	out, err := run(t, t.TempDir(), "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog")
	assert.Contains(t, out, "Out of stock")
	assert.NotContains(t, out, "in memory")
}

func TestAdjust_PersistsAcrossInvocations(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "adjust", "prod-004", "--delta=-10", "--reason", "sale", "--notes", "Counter sale", "--user", "clerk-2")
	require.NoError(t, err)
	assert.Contains(t, out, "prod-004 now holds 25 unit(s)")

	out, err = run(t, dir, "logs", "prod-004", "--json")
	require.NoError(t, err)
	logs := decodeJSON[[]domain.InventoryLog](t, out)
	require.Len(t, logs, 1)
	assert.Equal(t, -10, logs[0].Change)
	assert.Equal(t, 35, logs[0].PreviousQuantity)
	assert.Equal(t, domain.ReasonSale, logs[0].Reason)
	assert.Equal(t, "clerk-2", logs[0].UserID)
	require.NotNil(t, logs[0].Notes)
	assert.Equal(t, "Counter sale", *logs[0].Notes)

	out, err = run(t, dir, "logs", "prod-004")
	require.NoError(t, err)
	assert.Contains(t, out, "35 → 25")
	assert.Contains(t, out, "clerk-2")
}

func TestAdjust_Variant(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "adjust", "prod-001", "--variant", "var-001-4", "--delta=-50", "--reason", "sale", "--json")
	require.NoError(t, err)

	product := decodeJSON[domain.Product](t, out)
	assert.Equal(t, 0, product.Variants[product.FindVariant("var-001-4")].StockQuantity)
	assert.Equal(t, 750, product.StockQuantity)
}

func TestAdjust_RejectsReasons(t *testing.T) {
	dir := t.TempDir()

	for _, r := range []string{"initial", "theft"} {
		_, err := run(t, dir, "adjust", "prod-004", "--delta", "5", "--reason", r)
		assert.ErrorContains(t, err, "invalid reason")
	}

	_, err := run(t, dir, "adjust", "prod-missing", "--delta", "5", "--reason", "restock")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSet_ThenReset(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "set", "prod-006", "40", "--notes", "Cycle count")
	require.NoError(t, err)
	assert.Contains(t, out, "prod-006 now holds 40 unit(s)")

	out, err = run(t, dir, "list", "--out-of-stock", "--json")
	require.NoError(t, err)
	assert.Empty(t, decodeJSON[[]domain.Product](t, out))

	_, err = run(t, dir, "reset")
	require.NoError(t, err)

	out, err = run(t, dir, "list", "--out-of-stock", "--json")
	require.NoError(t, err)
	products := decodeJSON[[]domain.Product](t, out)
	require.Len(t, products, 1)
	assert.Equal(t, "prod-006", products[0].ID)

	_, err = run(t, dir, "set", "prod-006", "-1")
	assert.Error(t, err)
}

func TestClear_RequiresForce(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "clear")
	assert.ErrorContains(t, err, "--force")

	out, err := run(t, dir, "clear", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog cleared")
}

func TestList_FlagsAreExclusive(t *testing.T) {
	_, err := run(t, t.TempDir(), "list", "--low-stock", "--out-of-stock")
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestList_Table(t *testing.T) {
	out, err := run(t, t.TempDir(), "list", "--low-stock")
	require.NoError(t, err)
	assert.Contains(t, out, "prod-005")
	assert.Contains(t, out, "low_stock")
	assert.Contains(t, out, "1 product(s)")
}
