package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/docuchat/internal/domain"
)

// plaintextExts are extensions treated as plain text.
var plaintextExts = map[string]struct{}{
	"txt": {}, "md": {}, "text": {}, "log": {},
}

// Plaintext passes UTF-8 text documents through with newline normalization.
type Plaintext struct{}

// Supports claims known text extensions.
func (p *Plaintext) Supports(filename string, _ []byte) bool {
	_, ok := plaintextExts[ext(filename)]
	return ok
}

// Extract validates UTF-8 and normalizes line endings.
func (p *Plaintext) Extract(_ context.Context, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("not valid utf-8: %w", domain.ErrCorruptInput)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return text, nil
}
