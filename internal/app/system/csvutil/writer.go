// internal/app/system/csvutil/writer.go
package csvutil

import (
	"encoding/csv"
	"io"
	"net/http"
	"strings"
	"unicode"
)

// bom makes spreadsheet programs read the file as UTF-8.
const bom = "\ufeff"

// Attach sets the headers for a CSV download named filename.
func Attach(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+Filename(filename)+`"`)
	w.Header().Set("Cache-Control", "no-store")
}

// Filename keeps letters, digits, dot, dash and underscore and maps
// everything else to a dash.
func Filename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "export.csv"
	}
	return b.String()
}

// Writer writes CSV records with formula-safe cells.
type Writer struct {
	cw  *csv.Writer
	err error
}

// NewWriter starts a CSV document on w, prefixed with a UTF-8 BOM.
func NewWriter(w io.Writer) *Writer {
	_, err := io.WriteString(w, bom)
	return &Writer{cw: csv.NewWriter(w), err: err}
}

// Write appends one record. After the first error all writes are no-ops
// and Flush reports it.
func (w *Writer) Write(cells ...string) {
	if w.err != nil {
		return
	}
	rec := make([]string, len(cells))
	for i, c := range cells {
		rec[i] = Cell(c)
	}
	w.err = w.cw.Write(rec)
}

// Flush writes buffered records and returns the first error seen.
func (w *Writer) Flush() error {
	w.cw.Flush()
	if w.err != nil {
		return w.err
	}
	return w.cw.Error()
}

// Cell neutralizes values a spreadsheet would evaluate as a formula.
func Cell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// YesNo renders a flag for humans.
func YesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
