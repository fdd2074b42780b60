package constraint

import (
	"slices"

	"github.com/agenthands/clustercheck/internal/core/model"
)

type idSet map[model.ClusterID]struct{}

func newIDSet(ids ...model.ClusterID) idSet {
	s := make(idSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s idSet) has(id model.ClusterID) bool {
	_, ok := s[id]
	return ok
}

func (s idSet) addAll(o idSet) {
	for id := range o {
		s[id] = struct{}{}
	}
}

func (s idSet) removeAll(o idSet) {
	for id := range o {
		delete(s, id)
	}
}

func (s idSet) clone() idSet {
	out := make(idSet, len(s))
	out.addAll(s)
	return out
}

func (s idSet) intersects(o idSet) bool {
	small, large := s, o
	if len(small) > len(large) {
		small, large = large, small
	}
	for id := range small {
		if large.has(id) {
			return true
		}
	}
	return false
}

func (s idSet) sorted() []model.ClusterID {
	out := make([]model.ClusterID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
