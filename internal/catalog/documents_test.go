package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCategories = CategoryMap{
	"1-phones":  "phones",
	"2-laptops": "laptops",
}

// writeFixtureTree builds <base>/fnb/2025/11-november with a phones PDF
// and a month-level catalog PDF; laptops has a folder but no PDF.
func writeFixtureTree(t *testing.T) string {
	t.Helper()
	base := t.TempDir()

	monthDir := filepath.Join(base, "fnb", "2025", "11-november")
	require.NoError(t, os.MkdirAll(filepath.Join(monthDir, "1-phones"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(monthDir, "2-laptops"), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(monthDir, "1-phones", "phones.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(monthDir, "1-phones", "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(monthDir, "catalog-full.pdf"), []byte("%PDF"), 0o644))

	return base
}

func TestDocumentLocator_CategoryPDF(t *testing.T) {
	base := writeFixtureTree(t)
	l := NewDocumentLocator(base, "fnb", testCategories)

	path, ok := l.CategoryPDF(2025, "november", "phones")
	assert.True(t, ok)
	assert.Equal(t, "fnb/2025/11-november/1-phones/phones.pdf", path)

	// The caller does not know the ordinal prefix of the month folder.
	path, ok = l.CategoryPDF(2025, "11-november", "1-phones")
	assert.True(t, ok)
	assert.Equal(t, "fnb/2025/11-november/1-phones/phones.pdf", path)
}

func TestDocumentLocator_CategoryPDF_Absence(t *testing.T) {
	base := writeFixtureTree(t)
	l := NewDocumentLocator(base, "fnb", testCategories)

	_, ok := l.CategoryPDF(2025, "november", "laptops")
	assert.False(t, ok, "category folder without a PDF is absence")

	_, ok = l.CategoryPDF(2025, "november", "nonexistent")
	assert.False(t, ok, "unresolved category is absence, not an error")

	_, ok = l.CategoryPDF(2025, "december", "phones")
	assert.False(t, ok, "missing month folder is absence")

	_, ok = l.CategoryPDF(2030, "november", "phones")
	assert.False(t, ok, "missing year folder is absence")

	empty := NewDocumentLocator(t.TempDir(), "fnb", testCategories)
	_, ok = empty.CategoryPDF(2025, "november", "phones")
	assert.False(t, ok, "missing base tree is absence")
}

func TestDocumentLocator_MonthPDFs_CoversAllCategories(t *testing.T) {
	base := writeFixtureTree(t)
	l := NewDocumentLocator(base, "fnb", testCategories)

	pdfs := l.MonthPDFs(2025, "november")
	require.Len(t, pdfs, 2, "one entry per configured category, never a partial list")
	assert.Equal(t, "fnb/2025/11-november/1-phones/phones.pdf", pdfs["phones"])
	assert.Equal(t, "", pdfs["laptops"])
}

func TestDocumentLocator_MonthPDFs_MissingMonth(t *testing.T) {
	base := writeFixtureTree(t)
	l := NewDocumentLocator(base, "fnb", testCategories)

	pdfs := l.MonthPDFs(2025, "march")
	require.Len(t, pdfs, 2)
	assert.Equal(t, "", pdfs["phones"])
	assert.Equal(t, "", pdfs["laptops"])
}

func TestDocumentLocator_FullCatalogPDF(t *testing.T) {
	base := writeFixtureTree(t)
	l := NewDocumentLocator(base, "fnb", testCategories)

	path, ok := l.FullCatalogPDF(2025, "november")
	assert.True(t, ok)
	assert.Equal(t, "fnb/2025/11-november/catalog-full.pdf", path)

	_, ok = l.FullCatalogPDF(2025, "december")
	assert.False(t, ok)
}
