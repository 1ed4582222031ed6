package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/notistack/internal/history"
)

// YAMLFormatter formats entries as a YAML sequence.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes entries as a YAML sequence. An empty result is [].
func (f *YAMLFormatter) Format(w io.Writer, entries []history.Entry) error {
	if entries == nil {
		entries = []history.Entry{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return err
	}
	return enc.Close()
}
