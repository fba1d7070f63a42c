package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/diewo77/go-stockpos/internal/pdf"
)

// writePDF renders doc fully before sending so a render failure can still
// produce a JSON error.
func writePDF(w http.ResponseWriter, r *http.Request, build func() (pdf.Document, error), filename string) {
	doc, err := build()
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := pdf.Render(&buf, doc); err != nil {
		writeError(w, r, fmt.Errorf("render %s: %w", filename, err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
