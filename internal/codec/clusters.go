package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/agenthands/clustercheck/internal/core/cluster"
)

// ClustersRecord is the single-graph record: every member lists the other
// members of its cluster.
type ClustersRecord struct {
	Clusters []ClusterEntry `json:"clusters" validate:"required,dive"`
}

type ClusterEntry struct {
	ID      *int          `json:"id" validate:"required"`
	Cluster []MemberEntry `json:"cluster" validate:"required,min=1,dive"`
}

// MemberEntry accepts its neighbor list under either key.
type MemberEntry struct {
	Name          string   `json:"name" validate:"required"`
	Neighbors     []string `json:"neighbors,omitempty"`
	PredNeighbors []string `json:"pred_neighbors,omitempty"`
}

func NewClustersRecord(g *cluster.Graph) ClustersRecord {
	rec := ClustersRecord{Clusters: []ClusterEntry{}}
	for i, class := range g.Partition() {
		id := i
		entry := ClusterEntry{ID: &id}
		for j, name := range class {
			var neighbors []string
			neighbors = append(neighbors, class[:j]...)
			neighbors = append(neighbors, class[j+1:]...)
			entry.Cluster = append(entry.Cluster, MemberEntry{Name: name, Neighbors: neighbors})
		}
		rec.Clusters = append(rec.Clusters, entry)
	}
	return rec
}

// Graph inserts every member, then merges each with its listed neighbors.
// Neighbors that were never declared as members are rejected.
func (r ClustersRecord) Graph() (*cluster.Graph, error) {
	if err := validate.Struct(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	g := cluster.New()
	for _, c := range r.Clusters {
		for _, m := range c.Cluster {
			if err := g.Insert(m.Name); err != nil {
				return nil, fmt.Errorf("%w: cluster %d: %v", ErrMalformed, *c.ID, err)
			}
		}
	}
	for _, c := range r.Clusters {
		for _, m := range c.Cluster {
			for _, list := range [][]string{m.Neighbors, m.PredNeighbors} {
				for _, n := range list {
					if err := g.Merge(m.Name, n); err != nil {
						return nil, fmt.Errorf("%w: cluster %d: %v", ErrMalformed, *c.ID, err)
					}
				}
			}
		}
	}
	return g, nil
}

func ReadClusters(r io.Reader) (*cluster.Graph, error) {
	var rec ClustersRecord
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return rec.Graph()
}

func WriteClusters(w io.Writer, g *cluster.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(NewClustersRecord(g))
}
