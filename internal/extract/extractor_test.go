package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func docxBody(runs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><w:document><w:body><w:p>`)
	for _, r := range runs {
		b.WriteString(`<w:r><w:t xml:space="preserve">` + r + `</w:t></w:r>`)
	}
	b.WriteString(`</w:p></w:body></w:document>`)
	return b.String()
}

func TestExtractBytes_plain(t *testing.T) {
	tests := []struct {
		name    string
		content string
		ext     string
		want    string
	}{
		{"txt", "Hello world\nLine 2", ".txt", "Hello world\nLine 2"},
		{"utf8", "caf\xc3\xa9", ".md", "café"},
		{"invalid utf8", "hello\x80world", ".rst", "hello�world"},
		{"unknown extension", "raw content", ".xyz", "raw content"},
		{"sniffed", "just some notes", "", "just some notes"},
		{"bom and crlf", "\xef\xbb\xbfline 1\r\nline 2", ".txt", "line 1\nline 2"},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes([]byte(tt.content), tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Topic")
	f.SetCellValue("Sheet1", "A2", "Photosynthesis")
	f.SetCellValue("Sheet1", "B2", "Chlorophyll")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Topic\nPhotosynthesis\tChlorophyll" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_excelSheetsAndBlankRows(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Cells")
	f.SetCellValue("Sheet1", "A3", "Mitosis")
	if _, err := f.NewSheet("Terms"); err != nil {
		t.Fatal(err)
	}
	f.SetCellValue("Terms", "A1", "ATP")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Cells\nMitosis\n\nATP" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_pdfGarbage(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("%PDF-1.4\nnot really a pdf"), ".pdf"); err == nil {
		t.Error("expected error for malformed PDF")
	}
}

func TestExtractBytes_docx(t *testing.T) {
	const override = `<?xml version="1.0"?><Types>` +
		`<Override ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml" PartName="/word/document2.xml"/>` +
		`</Types>`
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "default part",
			files: map[string]string{"word/document.xml": docxBody("Cell", "biology &amp; more")},
			want:  "Cell biology & more",
		},
		{
			name: "part from content types",
			files: map[string]string{
				contentTypesPath:     override,
				"word/document.xml":  docxBody("wrong"),
				"word/document2.xml": docxBody("right"),
			},
			want: "right",
		},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes(zipOf(t, tt.files), ".docx")
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_docxMissingDocument(t *testing.T) {
	_, err := NewExtractor().ExtractBytes(zipOf(t, map[string]string{"other.xml": "x"}), ".docx")
	if err == nil {
		t.Error("expected error when document part is missing")
	}
}

func TestExtractBytes_pptxSlideOrder(t *testing.T) {
	slide := func(s string) string { return `<p:sld><a:t>` + s + `</a:t></p:sld>` }
	content := zipOf(t, map[string]string{
		"ppt/slides/slide10.xml": slide("ten"),
		"ppt/slides/slide2.xml":  slide("two"),
		"ppt/slides/slide1.xml":  slide("one"),
		"ppt/notesSlides/x.xml":  slide("ignored"),
	})
	got, err := NewExtractor().ExtractBytes(content, ".pptx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "one two ten" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_pptxNotZip(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("not a zip"), ".pptx"); err == nil {
		t.Error("expected error for non-zip content")
	}
}

func TestExtract_files(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.TXT")
	if err := os.WriteFile(txt, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}
	xlsx := filepath.Join(dir, "data.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Searchable text")
	if err := f.SaveAs(xlsx); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	e := NewExtractor()
	for path, want := range map[string]string{txt: "File content", xlsx: "Searchable text"} {
		got, err := e.Extract(path)
		if err != nil {
			t.Fatalf("Extract(%s): %v", path, err)
		}
		if got != want {
			t.Errorf("Extract(%s) = %q, want %q", path, got, want)
		}
	}
}

func TestExtract_nonexistent(t *testing.T) {
	if _, err := NewExtractor().Extract("/nonexistent/path/file.txt"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestDetectMIME(t *testing.T) {
	if got := DetectMIME([]byte("plain words")); got != "text/plain" {
		t.Errorf("DetectMIME(text) = %q", got)
	}
	if got := DetectMIME([]byte("%PDF-1.4\n")); got != "application/pdf" {
		t.Errorf("DetectMIME(pdf) = %q", got)
	}
}
