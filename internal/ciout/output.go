// Package ciout appends multi-line key/value blocks to a GitHub Actions
// output file.
package ciout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/vblagoje/pr-auto/internal/logging"
)

// delimiterSeed feeds the block delimiter. Multi-line output values need a
// frame delimiter that cannot occur in the value itself.
const delimiterSeed = "some_random_data"

// Writer appends output blocks to the file GitHub Actions designates via
// GITHUB_OUTPUT.
type Writer struct {
	path string
	log  logging.Logger
}

func NewWriter(path string, log logging.Logger) *Writer {
	return &Writer{path: path, log: log.WithName("ciout")}
}

// Write appends one name<<DELIM block. No-op when no output file is
// configured, e.g. running outside GitHub Actions.
func (w *Writer) Write(name, value string) error {
	if w.path == "" {
		w.log.Debug("no output file configured, skipping", "name", name)
		return nil
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatBlock(name, value)); err != nil {
		return fmt.Errorf("write output %q: %w", name, err)
	}
	return nil
}

// FormatBlock renders the name<<DELIM frame around a possibly multi-line
// value. The delimiter is computed per call.
func FormatBlock(name, value string) string {
	sum := sha256.Sum256([]byte(delimiterSeed))
	delimiter := hex.EncodeToString(sum[:])
	return fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter)
}
