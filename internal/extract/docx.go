package extract

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"log/slog"
	"strings"
)

// docxText extracts the concatenated body text of a DOCX file.
//
// A .docx is a zip archive; the document body lives in word/document.xml.
// Headers and footers are separate zip members and are never opened, so
// only body text is returned. Tracked-change deletions are w:delText
// elements and are skipped.
func docxText(path string) (string, bool) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		slog.Warn("extract: docx open failed", slog.String("path", path), slog.Any("error", err))
		return "", false
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			slog.Warn("extract: docx document.xml open failed", slog.String("path", path), slog.Any("error", err))
			return "", false
		}
		defer rc.Close()
		text, err := docxBodyText(rc)
		if err != nil {
			slog.Warn("extract: docx parse failed", slog.String("path", path), slog.Any("error", err))
			return "", false
		}
		return text, true
	}
	slog.Warn("extract: docx has no word/document.xml", slog.String("path", path))
	return "", false
}

// docxBodyText streams document.xml and collects the contents of w:t runs,
// separating paragraphs (w:p) with newlines.
func docxBodyText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	depthInDel := 0
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "delText", "del":
				depthInDel++
			case "t":
				if depthInDel == 0 {
					inText = true
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "delText", "del":
				if depthInDel > 0 {
					depthInDel--
				}
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText && depthInDel == 0 {
				sb.Write(el)
			}
		}
	}
	return sb.String(), nil
}
