// Package extract converts stored resume files into flat text.
//
// Extraction failures are a normal operating state, not errors: an
// unsupported or unreadable file yields ("", false) and the caller degrades
// to a zero matching score.
package extract

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Kind is the declared or inferred file kind of a stored resume.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindDOCX  Kind = "docx"
	KindTXT   Kind = "txt"
	KindOther Kind = "other"
)

// KindOf infers the file kind from the filename extension.
func KindOf(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindDOCX
	case ".txt":
		return KindTXT
	}
	return KindOther
}

// File extracts the visible text of the file at path. The second return is
// false when no text is available: unsupported kind, missing file, or a
// parse failure. It never propagates an error into the scoring path.
func File(path string) (string, bool) {
	switch KindOf(path) {
	case KindPDF:
		return pdfText(path)
	case KindDOCX:
		return docxText(path)
	case KindTXT:
		return txtText(path)
	}
	return "", false
}

// pdfText extracts visible text from every page in page order, with a line
// break between pages.
func pdfText(path string) (string, bool) {
	f, r, err := pdf.Open(path)
	if err != nil {
		slog.Warn("extract: pdf open failed", slog.String("path", path), slog.Any("error", err))
		return "", false
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("extract: pdf page failed", slog.String("path", path), slog.Int("page", i), slog.Any("error", err))
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), true
}

// txtText reads the raw bytes as UTF-8 text verbatim.
func txtText(path string) (string, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("extract: txt read failed", slog.String("path", path), slog.Any("error", err))
		return "", false
	}
	return string(b), true
}
