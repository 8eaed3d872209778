package imagerender

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// DeterminePDFPages returns the page count of a PDF as pdfcpu sees it. It is
// used to cross-check the renderer before a long run; other document
// formats report ok=false.
func DeterminePDFPages(path string) (n int, ok bool, err error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return 0, false, nil
	}
	n, err = api.PageCountFile(path)
	if err != nil {
		return 0, true, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, true, nil
}
