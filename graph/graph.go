package graph

import (
	"log/slog"
	"slices"

	"github.com/c360/semledger/metric"
	"github.com/c360/semledger/pkg/cache"
	"github.com/c360/semledger/relation"
)

const (
	// defaultMemoSize bounds the cycle-check memo cache.
	defaultMemoSize = 4096

	// defaultMaxDepth bounds cycle-check traversal. Ledger hierarchies run
	// three levels deep; chains past this are assumed acyclic.
	defaultMaxDepth = 10
)

type stringSet map[string]struct{}

// Graph is a directed, typed, multi-edge adjacency structure: relation
// type -> from key -> set of to keys. Edges are deduplicated and never
// deleted in normal operation. When the vocabulary pairs a type with an
// inverse, the reverse edge is recorded with the forward one.
//
// A Graph has a single logical writer, its owning store; it is not safe
// for concurrent mutation.
type Graph struct {
	name    string
	vocab   *relation.Vocabulary
	logger  *slog.Logger
	metrics *metric.Metrics

	adjacency map[relation.Type]map[string]stringSet

	// cycleTypes is captured at construction; register relation types
	// before building a graph over the vocabulary.
	cycleTypes []relation.Type

	memo      cache.Cache[bool]
	memoSize  int
	maxDepth  int
	cycleHits uint64
}

// Option configures a Graph.
type Option func(*Graph)

// WithName sets the name used in log records and metric labels, typically
// the owning store's name.
func WithName(name string) Option {
	return func(g *Graph) {
		g.name = name
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMemoSize sets the cycle-check memo capacity.
func WithMemoSize(size int) Option {
	return func(g *Graph) {
		if size > 0 {
			g.memoSize = size
		}
	}
}

// WithCycleCheckDepth sets how many ancestors the cycle check visits
// before assuming the chain is acyclic.
func WithCycleCheckDepth(depth int) Option {
	return func(g *Graph) {
		if depth > 0 {
			g.maxDepth = depth
		}
	}
}

// WithMetricsRegistry enables cycle-rejection and relationship metrics on
// the registry's core collectors.
func WithMetricsRegistry(registry *metric.MetricsRegistry) Option {
	return func(g *Graph) {
		if registry != nil {
			g.metrics = registry.CoreMetrics()
		}
	}
}

// NewGraph creates a Graph over the given relation vocabulary. A nil
// vocabulary gets relation.Core().
func NewGraph(vocab *relation.Vocabulary, opts ...Option) *Graph {
	g := &Graph{
		name:      "graph",
		vocab:     vocab,
		logger:    slog.Default(),
		adjacency: make(map[relation.Type]map[string]stringSet),
		memoSize:  defaultMemoSize,
		maxDepth:  defaultMaxDepth,
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.vocab == nil {
		g.vocab = relation.Core()
	}
	g.cycleTypes = g.vocab.CycleForming()

	memo, err := cache.NewLRU[bool](g.memoSize)
	if err != nil {
		memo = cache.NewNoop[bool]()
	}
	g.memo = memo

	return g
}

// Vocabulary returns the relation vocabulary this graph enforces.
func (g *Graph) Vocabulary() *relation.Vocabulary {
	return g.vocab
}

// AddEdge records a directed edge and, when the vocabulary defines an
// inverse for rel, the paired reverse edge atomically with it. It returns
// true when the forward edge is new.
//
// Self-edges and empty keys are rejected. For cycle-forming relation
// types the edge is checked first: one that would make an entity its own
// ancestor is dropped and logged, never an error.
func (g *Graph) AddEdge(from string, rel relation.Type, to string) bool {
	if from == "" || to == "" || from == to {
		return false
	}

	if g.vocab.IsCycleForming(rel) && g.wouldCycle(from, to) {
		g.recordCycleRejected(from, rel, to)
		return false
	}

	added := g.link(rel, from, to)
	if inv, ok := g.vocab.Inverse(rel); ok {
		g.link(inv, to, from)
	}

	if added && g.metrics != nil {
		g.metrics.RecordRelationshipAdded(g.name, rel.String())
		if inv, ok := g.vocab.Inverse(rel); ok {
			g.metrics.RecordRelationshipAdded(g.name, inv.String())
		}
	}

	return added
}

// link inserts a single directed edge, reporting whether it was new.
func (g *Graph) link(rel relation.Type, from, to string) bool {
	edges, ok := g.adjacency[rel]
	if !ok {
		edges = make(map[string]stringSet)
		g.adjacency[rel] = edges
	}

	set, ok := edges[from]
	if !ok {
		set = make(stringSet)
		edges[from] = set
	}

	if _, exists := set[to]; exists {
		return false
	}
	set[to] = struct{}{}
	return true
}

// Related returns the keys reachable from key over one edge of the given
// type, sorted for deterministic iteration. Nil when there are none.
func (g *Graph) Related(key string, rel relation.Type) []string {
	set := g.adjacency[rel][key]
	if len(set) == 0 {
		return nil
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// HasRelated reports whether key has at least one outgoing edge of the
// given type.
func (g *Graph) HasRelated(key string, rel relation.Type) bool {
	return len(g.adjacency[rel][key]) > 0
}

// Count returns the number of distinct edges of the given type.
func (g *Graph) Count(rel relation.Type) int {
	count := 0
	for _, set := range g.adjacency[rel] {
		count += len(set)
	}
	return count
}

// Counts returns per-type edge counts for every relation type holding at
// least one edge. This is the relationship_counts figure persisted in
// file metadata.
func (g *Graph) Counts() map[relation.Type]int {
	counts := make(map[relation.Type]int, len(g.adjacency))
	for rel := range g.adjacency {
		if n := g.Count(rel); n > 0 {
			counts[rel] = n
		}
	}
	return counts
}

// Snapshot copies the adjacency into the persisted wire shape: relation
// type -> from key -> sorted to keys. The copy is independent of the
// graph's internal state.
func (g *Graph) Snapshot() map[relation.Type]map[string][]string {
	snap := make(map[relation.Type]map[string][]string, len(g.adjacency))
	for rel, edges := range g.adjacency {
		if len(edges) == 0 {
			continue
		}
		fromMap := make(map[string][]string, len(edges))
		for from := range edges {
			fromMap[from] = g.Related(from, rel)
		}
		snap[rel] = fromMap
	}
	return snap
}

// Restore replaces the adjacency with the given snapshot, clearing the
// cycle memo. Used when loading persisted files back into memory.
func (g *Graph) Restore(snap map[relation.Type]map[string][]string) {
	g.adjacency = make(map[relation.Type]map[string]stringSet, len(snap))
	for rel, fromMap := range snap {
		edges := make(map[string]stringSet, len(fromMap))
		for from, tos := range fromMap {
			set := make(stringSet, len(tos))
			for _, to := range tos {
				set[to] = struct{}{}
			}
			edges[from] = set
		}
		g.adjacency[rel] = edges
	}
	_ = g.memo.Clear()
}
