package cluster

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

var (
	ErrDuplicateIdentity = errors.New("duplicate node identity")
	ErrUnknownNode       = errors.New("unknown node")
)

// Graph partitions a set of uniquely named nodes into equivalence classes.
//
// Classes live in an arena and are addressed by integer handles. Every node
// stores the handle of its current class, so merging rewrites the handle of
// each member of the absorbed class and isolating allocates a fresh handle.
type Graph struct {
	index   map[string]int // name -> node
	names   []string       // node -> name
	classOf []int          // node -> class handle
	classes []map[int]struct{}
	free    []int
}

func New() *Graph {
	return &Graph{index: make(map[string]int)}
}

// FromPartition builds a graph whose classes are exactly the given groups.
func FromPartition(groups [][]string) (*Graph, error) {
	g := New()
	for _, group := range groups {
		for i, name := range group {
			if err := g.Insert(name); err != nil {
				return nil, err
			}
			if i > 0 {
				if err := g.Merge(group[0], name); err != nil {
					return nil, err
				}
			}
		}
	}
	return g, nil
}

// Insert adds name as a singleton class.
func (g *Graph) Insert(name string) error {
	if _, ok := g.index[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateIdentity, name)
	}
	node := len(g.names)
	g.index[name] = node
	g.names = append(g.names, name)
	g.classOf = append(g.classOf, g.allocClass(node))
	return nil
}

func (g *Graph) allocClass(node int) int {
	members := map[int]struct{}{node: {}}
	if n := len(g.free); n > 0 {
		h := g.free[n-1]
		g.free = g.free[:n-1]
		g.classes[h] = members
		return h
	}
	g.classes = append(g.classes, members)
	return len(g.classes) - 1
}

func (g *Graph) lookup(name string) (int, error) {
	node, ok := g.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	return node, nil
}

func (g *Graph) Has(name string) bool {
	_, ok := g.index[name]
	return ok
}

func (g *Graph) Len() int {
	return len(g.names)
}

// Names returns every node name in sorted order.
func (g *Graph) Names() []string {
	out := slices.Clone(g.names)
	sort.Strings(out)
	return out
}

// Merge unions the classes containing a and b. The smaller class is absorbed
// into the larger one.
func (g *Graph) Merge(a, b string) error {
	na, err := g.lookup(a)
	if err != nil {
		return err
	}
	nb, err := g.lookup(b)
	if err != nil {
		return err
	}

	keep, drop := g.classOf[na], g.classOf[nb]
	if keep == drop {
		return nil
	}
	if len(g.classes[keep]) < len(g.classes[drop]) {
		keep, drop = drop, keep
	}

	for member := range g.classes[drop] {
		g.classOf[member] = keep
		g.classes[keep][member] = struct{}{}
	}
	g.classes[drop] = nil
	g.free = append(g.free, drop)
	return nil
}

// Isolate moves name out of its class into a new singleton class. It is a
// no-op when name is already alone.
func (g *Graph) Isolate(name string) error {
	node, err := g.lookup(name)
	if err != nil {
		return err
	}

	h := g.classOf[node]
	if len(g.classes[h]) == 1 {
		return nil
	}
	delete(g.classes[h], node)
	g.classOf[node] = g.allocClass(node)
	return nil
}

// Connected reports whether a and b are in the same class. Unknown names are
// never connected.
func (g *Graph) Connected(a, b string) bool {
	na, ok := g.index[a]
	if !ok {
		return false
	}
	nb, ok := g.index[b]
	if !ok {
		return false
	}
	return g.classOf[na] == g.classOf[nb]
}

// ClassSize returns the size of the class containing name, or 0 when name is unknown.
func (g *Graph) ClassSize(name string) int {
	node, ok := g.index[name]
	if !ok {
		return 0
	}
	return len(g.classes[g.classOf[node]])
}

// NeighborsOf returns the other members of name's class, sorted.
func (g *Graph) NeighborsOf(name string) ([]string, error) {
	node, err := g.lookup(name)
	if err != nil {
		return nil, err
	}

	members := g.classes[g.classOf[node]]
	out := make([]string, 0, len(members)-1)
	for member := range members {
		if member != node {
			out = append(out, g.names[member])
		}
	}
	sort.Strings(out)
	return out, nil
}

// Partition materializes the current classes. Members are sorted within a
// class and classes are ordered by their first member, so equal partitions
// compare equal.
func (g *Graph) Partition() [][]string {
	byClass := make(map[int][]string)
	for node, h := range g.classOf {
		byClass[h] = append(byClass[h], g.names[node])
	}

	out := make([][]string, 0, len(byClass))
	for _, members := range byClass {
		sort.Strings(members)
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i][0] < out[j][0]
	})
	return out
}

// NumClasses returns the number of live classes.
func (g *Graph) NumClasses() int {
	return len(g.classes) - len(g.free)
}
