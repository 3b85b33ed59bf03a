// Package content loads content fragments (pasted email bodies, saved
// messages, documents) from files or stdin.
package content

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
)

// Stdin is the path meaning "read standard input".
const Stdin = "-"

// documentTypes are converted to text; everything else is read verbatim so
// HTML keeps its anchors.
var documentTypes = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".odt":  true,
	".rtf":  true,
}

// Loader reads fragments. Stdin is used for the "-" path.
type Loader struct {
	Stdin io.Reader
	// Convert turns a document into plain text; defaults to docconv.
	Convert func(path string) (string, error)
}

// NewLoader returns a Loader reading "-" from os.Stdin.
func NewLoader() *Loader {
	return &Loader{Stdin: os.Stdin, Convert: convertDocument}
}

// Load returns the fragment stored at path.
func (l *Loader) Load(path string) (string, error) {
	if path == Stdin {
		if l.Stdin == nil {
			return "", errors.New("no standard input available")
		}

		data, err := io.ReadAll(l.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}

		return string(data), nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file does not exist: %s", path)
		}

		return "", err
	}

	if IsDocument(path) {
		convert := l.Convert
		if convert == nil {
			convert = convertDocument
		}

		text, err := convert(path)
		if err != nil {
			return "", fmt.Errorf("failed to convert %s: %w", path, err)
		}

		return text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return string(data), nil
}

// IsDocument reports whether path is converted to text rather than read raw.
func IsDocument(path string) bool {
	return documentTypes[strings.ToLower(filepath.Ext(path))]
}

func convertDocument(path string) (string, error) {
	response, err := docconv.ConvertPath(path)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(response.Body) == "" {
		return "", fmt.Errorf("no readable text found in %s", filepath.Base(path))
	}

	return response.Body, nil
}
