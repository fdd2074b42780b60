// Package codec converts clusterings between graphs and their file formats:
// the reviewer's label file, the paired actual/predicted record (JSON or
// YAML), and the single-graph clusters record.
package codec

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/agenthands/clustercheck/internal/core/cluster"
)

var ErrMalformed = errors.New("malformed clustering record")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Paired holds the verified and the predicted clustering of one image set.
type Paired struct {
	Actual    *cluster.Graph
	Predicted *cluster.Graph
}

// Importer reads a paired clustering from a given format.
type Importer interface {
	Parse(r io.Reader) (Paired, error)
	Format() string
}

// Exporter writes a paired clustering in a given format.
type Exporter interface {
	Export(p Paired, w io.Writer) error
	Format() string
}

type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the paired codec for "json" or "yaml".
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// PairedRecord is the serialized form of Paired: each side maps a cluster
// index to its member names.
type PairedRecord struct {
	Actual    map[int][]string `json:"actual" yaml:"actual" validate:"required,dive,min=1,dive,required"`
	Predicted map[int][]string `json:"predicted" yaml:"predicted" validate:"required,dive,min=1,dive,required"`
}

func NewPairedRecord(p Paired) PairedRecord {
	return PairedRecord{
		Actual:    indexPartition(p.Actual),
		Predicted: indexPartition(p.Predicted),
	}
}

func indexPartition(g *cluster.Graph) map[int][]string {
	out := make(map[int][]string)
	if g == nil {
		return out
	}
	for i, class := range g.Partition() {
		out[i] = class
	}
	return out
}

// Graphs rebuilds both sides. Both must cover the same node names.
func (r PairedRecord) Graphs() (Paired, error) {
	if err := validate.Struct(r); err != nil {
		return Paired{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	actual, err := fromIndexed(r.Actual)
	if err != nil {
		return Paired{}, fmt.Errorf("%w: actual: %v", ErrMalformed, err)
	}
	predicted, err := fromIndexed(r.Predicted)
	if err != nil {
		return Paired{}, fmt.Errorf("%w: predicted: %v", ErrMalformed, err)
	}
	if err := sameUniverse(actual, predicted); err != nil {
		return Paired{}, err
	}
	return Paired{Actual: actual, Predicted: predicted}, nil
}

func fromIndexed(m map[int][]string) (*cluster.Graph, error) {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	groups := make([][]string, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, m[k])
	}
	return cluster.FromPartition(groups)
}

func sameUniverse(actual, predicted *cluster.Graph) error {
	for _, name := range predicted.Names() {
		if !actual.Has(name) {
			return fmt.Errorf("%w: predicted node %q is not in actual", ErrMalformed, name)
		}
	}
	for _, name := range actual.Names() {
		if !predicted.Has(name) {
			return fmt.Errorf("%w: actual node %q is not in predicted", ErrMalformed, name)
		}
	}
	return nil
}
