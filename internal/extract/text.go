package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// TextExtractor returns the readable text of a document. Implementations
// return "" with a nil error when the document has no extractable text.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// Nop never extracts text. It is used when content extraction is disabled.
type Nop struct{}

// ExtractText implements TextExtractor.
func (Nop) ExtractText(context.Context, string) (string, error) {
	return "", nil
}

// DefaultPlainTextLimit bounds how much of a text document is read.
const DefaultPlainTextLimit int64 = 1 << 20

// PlainText reads documents whose detected content type is text/*. Binary
// formats (PDF, images, office documents) yield no text.
type PlainText struct {
	MaxBytes int64
}

// ExtractText implements TextExtractor.
func (p PlainText) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	if !isText(mtype) {
		return "", nil
	}

	limit := p.MaxBytes
	if limit <= 0 {
		limit = DefaultPlainTextLimit
	}
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open document: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(data), nil
}

func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}
