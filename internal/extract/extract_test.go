package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"resume.pdf", KindPDF},
		{"Resume.PDF", KindPDF},
		{"cv.docx", KindDOCX},
		{"notes.txt", KindTXT},
		{"avatar.png", KindOther},
		{"noext", KindOther},
		{"resume.doc", KindOther},
	}
	for _, tc := range tests {
		if got := KindOf(tc.name); got != tc.want {
			t.Errorf("KindOf(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFile_Txt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	content := "senior go engineer\nkubernetes, docker"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	text, ok := File(path)
	if !ok {
		t.Fatal("expected ok for txt file")
	}
	if text != content {
		t.Errorf("text = %q, want verbatim %q", text, content)
	}
}

func TestFile_Missing(t *testing.T) {
	if text, ok := File(filepath.Join(t.TempDir(), "gone.txt")); ok || text != "" {
		t.Errorf("missing file: got (%q, %v), want (\"\", false)", text, ok)
	}
}

func TestFile_UnsupportedKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := File(path); ok {
		t.Error("expected not-ok for unsupported kind")
	}
}

func TestFile_CorruptPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	if err := os.WriteFile(path, []byte("definitely not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if text, ok := File(path); ok || text != "" {
		t.Errorf("corrupt pdf: got (%q, %v), want (\"\", false)", text, ok)
	}
}

const docxBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Senior Go Engineer</w:t></w:r></w:p>
    <w:p>
      <w:r><w:t>Kubernetes and </w:t></w:r>
      <w:r><w:t>Docker</w:t></w:r>
    </w:p>
    <w:p><w:del><w:r><w:delText>removed line</w:delText></w:r></w:del></w:p>
  </w:body>
</w:document>`

func writeDocx(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFile_Docx(t *testing.T) {
	path := writeDocx(t, map[string]string{
		"word/document.xml": docxBody,
		"word/header1.xml":  `<w:hdr xmlns:w="x"><w:p><w:r><w:t>HEADER TEXT</w:t></w:r></w:p></w:hdr>`,
	})

	text, ok := File(path)
	if !ok {
		t.Fatal("expected ok for docx file")
	}
	if !strings.Contains(text, "Senior Go Engineer") {
		t.Errorf("missing title text in %q", text)
	}
	if !strings.Contains(text, "Kubernetes and Docker") {
		t.Errorf("run concatenation broken in %q", text)
	}
	if strings.Contains(text, "HEADER TEXT") {
		t.Errorf("header text leaked into body extraction: %q", text)
	}
	if strings.Contains(text, "removed line") {
		t.Errorf("tracked-change deletion leaked: %q", text)
	}
}

func TestFile_DocxWithoutDocumentXML(t *testing.T) {
	path := writeDocx(t, map[string]string{"word/styles.xml": "<w:styles/>"})
	if _, ok := File(path); ok {
		t.Error("expected not-ok when document.xml is absent")
	}
}

func TestFile_DocxNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.docx")
	if err := os.WriteFile(path, []byte("plain text pretending"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := File(path); ok {
		t.Error("expected not-ok for non-zip docx")
	}
}
