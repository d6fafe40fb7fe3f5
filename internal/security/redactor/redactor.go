// Package redactor scrubs credentials such as bot tokens from text before it
// reaches logs, errors or the terminal.
package redactor

import (
	"io"
	"strings"
	"sync"
)

// Mask replaces every redacted value.
const Mask = "[REDACTED]"

// minLength keeps short values (chat ids, placeholders) from being masked
// wherever they happen to occur.
const minLength = 8

// Redactor replaces known secrets in text.
type Redactor struct {
	mu      sync.RWMutex
	secrets []string
}

// New creates a Redactor for the given secrets.
func New(secrets ...string) *Redactor {
	r := &Redactor{}
	for _, s := range secrets {
		r.Add(s)
	}
	return r
}

// Add registers another secret.
func (r *Redactor) Add(secret string) {
	if len(secret) < minLength {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.secrets = append(r.secrets, secret)
}

// Redact returns input with every known secret masked.
func (r *Redactor) Redact(input string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, secret := range r.secrets {
		input = strings.ReplaceAll(input, secret, Mask)
	}
	return input
}

// Writer masks secrets in everything written to the wrapped writer. Each
// Write is redacted on its own, which suits line-oriented writers such as
// log encoders.
type Writer struct {
	w io.Writer
	r *Redactor
}

// NewWriter wraps w.
func NewWriter(w io.Writer, r *Redactor) *Writer {
	return &Writer{w: w, r: r}
}

// Write reports len(p) on success even though the redacted output may differ
// in length.
func (w *Writer) Write(p []byte) (int, error) {
	if _, err := io.WriteString(w.w, w.r.Redact(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}
