package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLCodec reads and writes the paired record as YAML.
type YAMLCodec struct{}

func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

func (c *YAMLCodec) Format() string {
	return "yaml"
}

func (c *YAMLCodec) Parse(r io.Reader) (Paired, error) {
	var rec PairedRecord
	if err := yaml.NewDecoder(r).Decode(&rec); err != nil {
		return Paired{}, fmt.Errorf("%w: failed to parse YAML: %v", ErrMalformed, err)
	}
	return rec.Graphs()
}

func (c *YAMLCodec) Export(p Paired, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewPairedRecord(p)); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}
