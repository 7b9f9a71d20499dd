package doctext

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func TestExtractPlainText(t *testing.T) {
	text, err := Extract([]byte("  chief complaint: hives\nplan: antihistamine  "), "notes.txt")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.HasPrefix(text, "chief complaint") {
		t.Errorf("text = %q, want trimmed content", text)
	}
}

func TestExtractRejectsEmptyAndBinary(t *testing.T) {
	if _, err := Extract(nil, "empty.txt"); err == nil {
		t.Error("Extract(empty) = nil error, want rejection")
	}
	if _, err := Extract([]byte{0xff, 0xfe, 0x00, 0x81}, "blob.bin"); err == nil {
		t.Error("Extract(binary) = nil error, want rejection")
	}
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractDocx(t *testing.T) {
	doc := buildDocx(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Referral letter</w:t></w:r></w:p>
    <w:p><w:r><w:t>Patient has a history of </w:t></w:r><w:r><w:t>penicillin rash.</w:t></w:r></w:p>
    <w:p><w:r><w:t></w:t></w:r></w:p>
  </w:body>
</w:document>`)

	text, err := Extract(doc, "referral.docx")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	paragraphs := strings.Split(text, "\n\n")
	if len(paragraphs) != 2 {
		t.Fatalf("got %d paragraphs, want 2: %q", len(paragraphs), text)
	}
	if paragraphs[1] != "Patient has a history of penicillin rash." {
		t.Errorf("paragraph 1 = %q, want joined runs", paragraphs[1])
	}
}

func TestExtractDocxMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/styles.xml")
	w.Write([]byte("<styles/>"))
	zw.Close()

	if _, err := Extract(buf.Bytes(), "broken.docx"); err == nil {
		t.Error("Extract() = nil error, want missing document.xml rejection")
	}
}

func TestTextFromContentStream(t *testing.T) {
	stream := []byte("BT\n/F1 12 Tf\n(Allergy) Tj\n[(clinic) -100 (note)] TJ\nT*\n(Follow\\040up) Tj\nET")
	text := textFromContentStream(stream)
	for _, want := range []string{"Allergy", "clinic", "note", "Follow up"} {
		if !strings.Contains(text, want) {
			t.Errorf("text = %q, missing %q", text, want)
		}
	}
}

func TestDecodePDFStringEscapes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, "plain"},
		{`a\(b\)c`, "a(b)c"},
		{`tab\there`, "tab\there"},
		{`oct\101l`, "octAl"},
		{`back\\slash`, `back\slash`},
	}
	for _, tt := range tests {
		if got := decodePDFString([]byte(tt.in)); got != tt.want {
			t.Errorf("decodePDFString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	if got := cleanText("  a \n\n b\t\tc  "); got != "a b c" {
		t.Errorf("cleanText() = %q, want %q", got, "a b c")
	}
}
