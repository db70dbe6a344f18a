package catalog

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DocumentLocator finds companion PDF documents for one segment under a
// fixed directory convention:
//
//	<base>/<segment>/<year>/<NN-month>/<folder-token>/*.pdf   category PDF
//	<base>/<segment>/<year>/<NN-month>/*.pdf                  full-catalog PDF
//
// Month folders carry an ordinal prefix the caller does not know, so the
// month folder is found by substring match on the bare month name.
// Missing directories at any level are absence, never errors.
type DocumentLocator struct {
	base       string
	segment    string
	categories CategoryMap
}

// NewDocumentLocator creates a locator rooted at base for one segment.
func NewDocumentLocator(base, segment string, categories CategoryMap) *DocumentLocator {
	return &DocumentLocator{base: base, segment: segment, categories: categories}
}

// CategoryPDF returns the path of the first PDF directly inside the
// category's folder for (year, month), relative to the documents base.
// At most one PDF per category is expected; the locator does not enforce
// that and simply takes the first listed.
func (l *DocumentLocator) CategoryPDF(year int, month, category string) (string, bool) {
	token, ok := l.categories.FolderToken(category)
	if !ok {
		return "", false
	}
	monthDir, ok := l.findMonthDir(year, month)
	if !ok {
		return "", false
	}
	return l.firstPDF(filepath.Join(monthDir, token))
}

// MonthPDFs reports the category PDF for every configured category of
// the segment; categories without a PDF map to the empty string. The
// result always covers all configured categories, never a partial list.
func (l *DocumentLocator) MonthPDFs(year int, month string) map[string]string {
	pdfs := make(map[string]string, len(l.categories))
	for _, name := range l.categories {
		pdfs[name] = ""
	}

	monthDir, ok := l.findMonthDir(year, month)
	if !ok {
		return pdfs
	}
	for _, token := range l.categories.SortedTokens() {
		if path, ok := l.firstPDF(filepath.Join(monthDir, token)); ok {
			pdfs[l.categories[token]] = path
		}
	}
	return pdfs
}

// FullCatalogPDF returns the month-level catalog document, located at
// the root of the month folder.
func (l *DocumentLocator) FullCatalogPDF(year int, month string) (string, bool) {
	monthDir, ok := l.findMonthDir(year, month)
	if !ok {
		return "", false
	}
	return l.firstPDF(monthDir)
}

// findMonthDir scans the year directory for the first folder whose name
// contains the bare month name. Folder names look like "12-december".
func (l *DocumentLocator) findMonthDir(year int, month string) (string, bool) {
	yearDir := filepath.Join(l.base, l.segment, strconv.Itoa(year))
	entries, err := os.ReadDir(yearDir)
	if err != nil {
		return "", false
	}

	bare := strings.ToLower(BareMonth(month))
	for _, entry := range entries {
		if entry.IsDir() && strings.Contains(strings.ToLower(entry.Name()), bare) {
			return filepath.Join(yearDir, entry.Name()), true
		}
	}
	return "", false
}

// firstPDF returns the first PDF-suffixed file directly inside dir,
// relative to the documents base. Not recursive.
func (l *DocumentLocator) firstPDF(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			rel, err := filepath.Rel(l.base, filepath.Join(dir, entry.Name()))
			if err != nil {
				return "", false
			}
			return filepath.ToSlash(rel), true
		}
	}
	return "", false
}
