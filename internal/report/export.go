package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Exporter persists rendered artifacts under a per-identity deterministic
// name so repeated requests overwrite rather than accumulate files.
type Exporter struct {
	root    string
	baseURL string
}

// NewExporter creates an exporter writing under root, linking via baseURL
func NewExporter(root, baseURL string) *Exporter {
	return &Exporter{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// sanitizeIdentity maps an identity to filename-safe bytes. Underscore acts
// as the escape character and is itself escaped, so the mapping is injective:
// "user:1" and "user_1" produce different filenames, and identities like
// "whatsapp:+62812..." cannot escape the export root.
func sanitizeIdentity(identity string) string {
	var b strings.Builder
	for i := 0; i < len(identity); i++ {
		c := identity[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '+', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02x", c)
		}
	}
	return b.String()
}

// Export writes the artifact to {kind}_{identity}.{ext} under the export
// root and returns the file path and a download URL. The write goes to a
// temporary file first and is renamed into place, so readers never observe
// a partial artifact.
func (e *Exporter) Export(artifact []byte, identity, kind, ext string) (string, string, error) {
	if err := os.MkdirAll(e.root, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create export root: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.%s", kind, sanitizeIdentity(identity), ext)
	final := filepath.Join(e.root, filename)
	tmp := filepath.Join(e.root, fmt.Sprintf(".%s.%s.tmp", filename, uuid.New().String()))

	if err := os.WriteFile(tmp, artifact, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", "", fmt.Errorf("failed to place artifact: %w", err)
	}

	return final, fmt.Sprintf("%s/static/%s", e.baseURL, filename), nil
}
