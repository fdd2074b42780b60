// Package constraint tracks what human reviewers have established about the
// clusters of a partition snapshot: which clusters are the same identity,
// which are known to differ, and which pairs are still open.
//
// Knowledge is kept per cluster id and is always shared by every id of an
// is-same group, so declaring two ids the same (or different) propagates to
// everything already known to be the same as either of them.
package constraint

import (
	"errors"
	"fmt"
	"sort"

	"github.com/agenthands/clustercheck/internal/core/cluster"
	"github.com/agenthands/clustercheck/internal/core/model"
)

var (
	ErrUnknownCluster = errors.New("unknown cluster id")
	ErrContradiction  = errors.New("decision contradicts recorded knowledge")
	ErrNotMember      = errors.New("node is not a member of the cluster")
)

type record struct {
	isSame idSet
	canBe  idSet
	cantBe idSet
}

// Relations is a read-only copy of one cluster's constraint record.
type Relations struct {
	IsSame []model.ClusterID `json:"is_same"`
	CanBe  []model.ClusterID `json:"can_be"`
	CantBe []model.ClusterID `json:"cant_be"`
}

// Tracker holds one constraint record per cluster id. It is not safe for
// concurrent use.
type Tracker struct {
	graph   *cluster.Graph
	members map[model.ClusterID]map[string]struct{}
	records map[model.ClusterID]*record
	nextID  model.ClusterID
}

// New snapshots graph's partition. Cluster i is the i-th class of
// graph.Partition(). Splits isolate nodes in graph.
func New(graph *cluster.Graph) *Tracker {
	partition := graph.Partition()
	t := &Tracker{
		graph:   graph,
		members: make(map[model.ClusterID]map[string]struct{}, len(partition)),
		records: make(map[model.ClusterID]*record, len(partition)),
		nextID:  model.ClusterID(len(partition)),
	}

	all := make(idSet, len(partition))
	for i, class := range partition {
		id := model.ClusterID(i)
		all[id] = struct{}{}
		set := make(map[string]struct{}, len(class))
		for _, name := range class {
			set[name] = struct{}{}
		}
		t.members[id] = set
	}
	for id := range all {
		canBe := all.clone()
		delete(canBe, id)
		t.records[id] = &record{
			isSame: newIDSet(id),
			canBe:  canBe,
			cantBe: newIDSet(),
		}
	}
	return t
}

func (t *Tracker) get(id model.ClusterID) (*record, error) {
	r, ok := t.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCluster, id)
	}
	return r, nil
}

// Len returns the number of live cluster ids.
func (t *Tracker) Len() int {
	return len(t.records)
}

// IDs returns the live cluster ids in ascending order.
func (t *Tracker) IDs() []model.ClusterID {
	ids := make([]model.ClusterID, 0, len(t.records))
	for id := range t.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Members returns the node names currently assigned to id, sorted.
func (t *Tracker) Members(id model.ClusterID) ([]string, error) {
	set, ok := t.members[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCluster, id)
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (t *Tracker) Relations(id model.ClusterID) (Relations, error) {
	r, err := t.get(id)
	if err != nil {
		return Relations{}, err
	}
	return Relations{
		IsSame: r.isSame.sorted(),
		CanBe:  r.canBe.sorted(),
		CantBe: r.cantBe.sorted(),
	}, nil
}

// StillUnresolved reports whether id has open candidates. Unknown ids are resolved.
func (t *Tracker) StillUnresolved(id model.ClusterID) bool {
	r, ok := t.records[id]
	return ok && len(r.canBe) > 0
}

// Unresolved returns the ids with a non-empty can-be set, ascending.
func (t *Tracker) Unresolved() []model.ClusterID {
	var out []model.ClusterID
	for _, id := range t.IDs() {
		if len(t.records[id].canBe) > 0 {
			out = append(out, id)
		}
	}
	return out
}

// Potency is the number of open candidate relations summed over all records.
func (t *Tracker) Potency() int {
	total := 0
	for _, r := range t.records {
		total += len(r.canBe)
	}
	return total
}

// CheckSame reports the error DeclareSame(i, j) would return, without
// changing anything.
func (t *Tracker) CheckSame(i, j model.ClusterID) error {
	ri, err := t.get(i)
	if err != nil {
		return err
	}
	rj, err := t.get(j)
	if err != nil {
		return err
	}
	if i == j {
		return nil
	}
	if ri.isSame.intersects(rj.cantBe) || rj.isSame.intersects(ri.cantBe) {
		return fmt.Errorf("%w: %d and %d are known to differ", ErrContradiction, i, j)
	}
	return nil
}

// CheckDifferent reports the error DeclareDifferent(i, j) would return,
// without changing anything.
func (t *Tracker) CheckDifferent(i, j model.ClusterID) error {
	ri, err := t.get(i)
	if err != nil {
		return err
	}
	rj, err := t.get(j)
	if err != nil {
		return err
	}
	if ri.isSame.intersects(rj.isSame) {
		return fmt.Errorf("%w: %d and %d are known to be the same", ErrContradiction, i, j)
	}
	return nil
}

// CheckSplit reports the error SplitCluster(id, a, b) would return, without
// changing anything.
func (t *Tracker) CheckSplit(id model.ClusterID, a, b string) error {
	members, ok := t.members[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCluster, id)
	}
	if len(members) == 1 {
		return nil
	}
	for _, n := range []string{a, b} {
		if _, ok := members[n]; !ok {
			return fmt.Errorf("%w: %q in %d", ErrNotMember, n, id)
		}
	}
	return nil
}

// DeclareSame records that i and j are the same identity. Both is-same
// groups are fused, each member inherits the union of their exclusions, and
// every excluded id learns that it differs from the whole fused group.
func (t *Tracker) DeclareSame(i, j model.ClusterID) error {
	if err := t.CheckSame(i, j); err != nil {
		return err
	}
	if i == j {
		return nil
	}

	ri, rj := t.records[i], t.records[j]
	group := ri.isSame.clone()
	group.addAll(rj.isSame)
	excluded := ri.cantBe.clone()
	excluded.addAll(rj.cantBe)
	for k := range group {
		r := t.records[k]
		r.isSame = group.clone()
		r.cantBe = excluded.clone()
		r.canBe.removeAll(group)
		r.canBe.removeAll(excluded)
	}
	for x := range excluded {
		r := t.records[x]
		r.cantBe.addAll(group)
		r.canBe.removeAll(group)
	}
	return nil
}

// DeclareDifferent records that i and j are distinct identities, and so is
// every pair drawn from their two is-same groups.
func (t *Tracker) DeclareDifferent(i, j model.ClusterID) error {
	if err := t.CheckDifferent(i, j); err != nil {
		return err
	}

	left, right := t.records[i].isSame.clone(), t.records[j].isSame.clone()
	for k := range left {
		r := t.records[k]
		r.cantBe.addAll(right)
		r.canBe.removeAll(right)
	}
	for k := range right {
		r := t.records[k]
		r.cantBe.addAll(left)
		r.canBe.removeAll(left)
	}
	return nil
}

// SplitCluster handles a failed self-check of id: nodes a and b are pulled
// out of the cluster, isolated in the graph, and each becomes a new cluster
// id that is unresolved against every other id. A singleton cluster cannot
// be split and is left alone. Call Cleanup afterwards, since id itself may
// now be empty.
func (t *Tracker) SplitCluster(id model.ClusterID, a, b string) ([]model.ClusterID, error) {
	if err := t.CheckSplit(id, a, b); err != nil {
		return nil, err
	}
	members := t.members[id]
	if len(members) == 1 {
		return nil, nil
	}

	isolated := []string{a}
	if b != a {
		isolated = append(isolated, b)
	}

	created := make([]model.ClusterID, 0, len(isolated))
	for _, n := range isolated {
		if err := t.graph.Isolate(n); err != nil {
			return created, fmt.Errorf("isolate %q: %w", n, err)
		}
		delete(members, n)
		created = append(created, t.allocate(n))
	}
	return created, nil
}

func (t *Tracker) allocate(name string) model.ClusterID {
	id := t.nextID
	t.nextID++

	canBe := make(idSet, len(t.records))
	for other, r := range t.records {
		r.canBe[id] = struct{}{}
		canBe[other] = struct{}{}
	}
	t.records[id] = &record{
		isSame: newIDSet(id),
		canBe:  canBe,
		cantBe: newIDSet(),
	}
	t.members[id] = map[string]struct{}{name: {}}
	return id
}

// Cleanup drops every cluster id whose member set is empty, removing all
// references to it from the remaining records. It returns the dropped ids.
func (t *Tracker) Cleanup() []model.ClusterID {
	empty := newIDSet()
	for id, members := range t.members {
		if len(members) == 0 {
			empty[id] = struct{}{}
		}
	}
	if len(empty) == 0 {
		return nil
	}

	for id := range empty {
		delete(t.records, id)
		delete(t.members, id)
	}
	for _, r := range t.records {
		r.isSame.removeAll(empty)
		r.canBe.removeAll(empty)
		r.cantBe.removeAll(empty)
	}
	return empty.sorted()
}

// Groups returns the distinct is-same groups, each sorted, ordered by their
// smallest id.
func (t *Tracker) Groups() [][]model.ClusterID {
	seen := newIDSet()
	var out [][]model.ClusterID
	for _, id := range t.IDs() {
		if seen.has(id) {
			continue
		}
		group := t.records[id].isSame.sorted()
		for _, g := range group {
			seen[g] = struct{}{}
		}
		out = append(out, group)
	}
	return out
}

// Validate checks that every record partitions the live id space into its
// three relation sets and contains itself in its is-same set.
func (t *Tracker) Validate() error {
	for id, r := range t.records {
		if !r.isSame.has(id) {
			return fmt.Errorf("cluster %d: is_same does not contain itself", id)
		}
		if r.isSame.intersects(r.canBe) || r.isSame.intersects(r.cantBe) || r.canBe.intersects(r.cantBe) {
			return fmt.Errorf("cluster %d: relation sets overlap", id)
		}
		if n := len(r.isSame) + len(r.canBe) + len(r.cantBe); n != len(t.records) {
			return fmt.Errorf("cluster %d: relation sets cover %d of %d ids", id, n, len(t.records))
		}
		for _, s := range []idSet{r.isSame, r.canBe, r.cantBe} {
			for other := range s {
				if _, ok := t.records[other]; !ok {
					return fmt.Errorf("cluster %d: dangling reference to %d", id, other)
				}
			}
		}
	}
	return nil
}
