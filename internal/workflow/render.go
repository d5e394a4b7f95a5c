package workflow

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Marker is the first line of every generated workflow file. It is also how
// stale generated files are told apart from hand-written ones.
const Marker = `# ~~ Generated by cicd-helper. To modify, edit your project configuration and run "cicd-helper synth".`

// Render serializes the workflow to YAML, prefixed with Marker
func Render(w *Workflow) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(Marker)
	buf.WriteString("\n\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(w); err != nil {
		return nil, fmt.Errorf("failed to encode workflow %s: %w", w.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode workflow %s: %w", w.Name, err)
	}

	return buf.Bytes(), nil
}

// IsGenerated reports whether content was produced by Render
func IsGenerated(content []byte) bool {
	return bytes.HasPrefix(content, []byte(Marker))
}
