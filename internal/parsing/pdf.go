package parsing

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractTextFromPDF takes a byte slice of a PDF file and returns the extracted plain text.
func ExtractTextFromPDF(pdfData []byte) (string, error) {
	reader := bytes.NewReader(pdfData)
	pdfReader, err := pdf.NewReader(reader, int64(len(pdfData)))
	if err != nil {
		return "", fmt.Errorf("error creating PDF reader: %w", err)
	}

	b, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("could not read content of pdf: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(b); err != nil {
		return "", fmt.Errorf("could not read content of pdf: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// IsPDF checks if the provided filename has a .pdf extension (case-insensitive).
func IsPDF(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}
