package generate

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed prompts/books_v1.txt
var booksV1 string

// DefaultUserPrefix leads the user turn of every prompt.
const DefaultUserPrefix = "Build a query for: "

// Instructions is the versioned system prompt sent with every attempt.
type Instructions struct {
	Version    string
	System     string
	UserPrefix string
}

// DefaultInstructions returns the embedded book catalogue prompt.
func DefaultInstructions() Instructions {
	return Instructions{
		Version:    "books_v1",
		System:     booksV1,
		UserPrefix: DefaultUserPrefix,
	}
}

// LoadInstructions reads a system prompt from path. The version is the file
// name without extension.
func LoadInstructions(path string) (Instructions, error) {
	b, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return Instructions{}, fmt.Errorf("read prompt file: %w", err)
	}
	system := strings.TrimSpace(string(b))
	if system == "" {
		return Instructions{}, fmt.Errorf("prompt file %s is empty", path)
	}
	base := filepath.Base(path)
	return Instructions{
		Version:    strings.TrimSuffix(base, filepath.Ext(base)),
		System:     system,
		UserPrefix: DefaultUserPrefix,
	}, nil
}
