package testutil

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/require"
)

// PDF renders a real document with the given number of pages
func PDF(t testing.TB, pages int) []byte {
	t.Helper()

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetFont("Arial", "", 12)
	for i := 1; i <= pages; i++ {
		doc.AddPage()
		doc.Cell(40, 10, fmt.Sprintf("Test page %d", i))
	}

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

// PDFFile wraps a generated document into a selection with the PDF media type
func PDFFile(t testing.TB, name string, pages int) *entity.SelectedFile {
	t.Helper()

	content := PDF(t, pages)
	return &entity.SelectedFile{
		Name:        name,
		ContentType: entity.PDFContentType,
		Content:     content,
		Size:        int64(len(content)),
	}
}

// TextFile is a selection that must be rejected
func TextFile(name string) *entity.SelectedFile {
	content := []byte("plain text")
	return &entity.SelectedFile{
		Name:        name,
		ContentType: "text/plain",
		Content:     content,
		Size:        int64(len(content)),
	}
}
