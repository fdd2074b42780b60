package codec

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONCodec reads and writes the paired record as indented JSON.
type JSONCodec struct{}

func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

func (c *JSONCodec) Format() string {
	return "json"
}

func (c *JSONCodec) Parse(r io.Reader) (Paired, error) {
	var rec PairedRecord
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return Paired{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return rec.Graphs()
}

func (c *JSONCodec) Export(p Paired, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(NewPairedRecord(p))
}
