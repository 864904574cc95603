package parsing

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// Document is text pulled out of an uploaded or imported file.
type Document struct {
	Title   string
	Content string
}

// ExtractDocument reads a .pdf, .md or .txt file. The title comes from the
// first markdown heading when there is one, otherwise from the file name.
func ExtractDocument(filename string, data []byte) (*Document, error) {
	var content string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err := ExtractTextFromPDF(data)
		if err != nil {
			return nil, err
		}
		content = text
	case ".md", ".markdown", ".txt":
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%s is not valid utf-8", filename)
		}
		content = strings.TrimSpace(string(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}

	if content == "" {
		return nil, fmt.Errorf("no text found in %s", filename)
	}

	return &Document{Title: titleFor(filename, content), Content: content}, nil
}

func titleFor(filename, content string) string {
	for _, line := range strings.SplitN(content, "\n", 20) {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}

	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}
