package receiver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// PDFContentType is the only accepted upload type.
const PDFContentType = "application/pdf"

const defaultMaxUploadMB = 10

// ValidationError marks a rejection the HTTP layer should report as a client
// error rather than an internal failure.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// Receiver validates uploads and persists them to the local scratch
// directory.
type Receiver struct {
	dir      string
	maxBytes int64
}

func New(dir string, maxUploadMB int64) (*Receiver, error) {
	if maxUploadMB <= 0 {
		maxUploadMB = defaultMaxUploadMB
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &Receiver{dir: dir, maxBytes: maxUploadMB << 20}, nil
}

// Validate checks the declared content type and the measured byte size
// against the ceiling.
func (r *Receiver) Validate(name, contentType string, size int64) error {
	if contentType != PDFContentType {
		return &ValidationError{msg: fmt.Sprintf("%s is not a PDF", name)}
	}
	if size > r.maxBytes {
		return &ValidationError{msg: fmt.Sprintf("%s exceeds %dMB", name, r.maxBytes>>20)}
	}
	return nil
}

// Save writes the uploaded bytes under the scratch directory and returns the
// stored path, which doubles as the canonical source identifier downstream.
// A same-named re-upload overwrites the previous file.
func (r *Receiver) Save(name string, data []byte) (string, error) {
	path := filepath.Join(r.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	log.Debug().Str("path", path).Int("bytes", len(data)).Msg("Saved upload")
	return path, nil
}
