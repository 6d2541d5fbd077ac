// Package memory is an in-process similarity index. Small indexes are scanned
// exactly; large ones fall back to an HNSW graph. Contents are lost on restart,
// so it suits development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/saturnino-fabrica-de-software/classroll/internal/vectorindex"
)

const (
	maxNeighbors = 16
	efSearch     = 100
	// DefaultExactLimit is the index size up to which queries scan every
	// stored vector instead of walking the graph
	DefaultExactLimit = 20000
)

type entry struct {
	vector   []float64
	metadata map[string]any
}

// Index keeps the authoritative vectors in a map. Queries scan the map
// exactly while it holds at most exactLimit vectors; larger indexes take
// candidates from an HNSW graph and rescore them exactly.
type Index struct {
	mu         sync.RWMutex
	entries    map[string]entry
	graph      *hnsw.Graph[string]
	dim        int
	exactLimit int
	// stale is set when a node was replaced or removed; the graph is rebuilt on the next query
	stale bool
}

func New() *Index {
	return &Index{
		entries:    make(map[string]entry),
		exactLimit: DefaultExactLimit,
	}
}

// WithExactLimit sets the size above which queries use the graph. Zero
// makes every query approximate.
func (x *Index) WithExactLimit(n int) *Index {
	x.exactLimit = n
	return x
}

func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = maxNeighbors
	g.Ml = 1.0 / float64(maxNeighbors)
	g.EfSearch = efSearch
	g.Distance = hnsw.CosineDistance
	return g
}

func (x *Index) Upsert(ctx context.Context, id string, vector []float64, metadata map[string]any) error {
	if err := vectorindex.ValidateUpsert(id, vector); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.dim != 0 && len(vector) != x.dim {
		return fmt.Errorf("%w: index holds %d dimensions, got %d", vectorindex.ErrDimensionMismatch, x.dim, len(vector))
	}
	x.dim = len(vector)

	stored := make([]float64, len(vector))
	copy(stored, vector)

	_, replaced := x.entries[id]
	x.entries[id] = entry{vector: stored, metadata: copyMetadata(metadata)}

	if replaced || x.graph == nil {
		x.stale = true
		return nil
	}
	if !x.stale {
		x.graph.Add(hnsw.MakeNode(id, vectorindex.ToFloat32(stored)))
	}
	return nil
}

func (x *Index) Query(ctx context.Context, vector []float64, topK int) ([]vectorindex.Match, error) {
	if len(vector) == 0 {
		return nil, vectorindex.ErrEmptyVector
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []vectorindex.Match{}, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if len(x.entries) == 0 {
		return []vectorindex.Match{}, nil
	}
	if len(vector) != x.dim {
		return nil, fmt.Errorf("%w: index holds %d dimensions, got %d", vectorindex.ErrDimensionMismatch, x.dim, len(vector))
	}

	var matches []vectorindex.Match
	if len(x.entries) <= x.exactLimit {
		matches = x.scan(vector)
	} else {
		matches = x.search(vector, topK)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}

	return matches, nil
}

func (x *Index) Delete(ctx context.Context, ids ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	for _, id := range ids {
		if _, ok := x.entries[id]; ok {
			delete(x.entries, id)
			x.stale = true
		}
	}
	if len(x.entries) == 0 {
		x.dim = 0
		x.graph = nil
		x.stale = false
	}
	return nil
}

// scan scores every stored vector; mu must be held
func (x *Index) scan(vector []float64) []vectorindex.Match {
	matches := make([]vectorindex.Match, 0, len(x.entries))
	for id, e := range x.entries {
		matches = append(matches, vectorindex.Match{
			ID:       id,
			Score:    vectorindex.CosineSimilarity(vector, e.vector),
			Metadata: copyMetadata(e.metadata),
		})
	}
	return matches
}

// search rescores graph candidates; mu must be held
func (x *Index) search(vector []float64, topK int) []vectorindex.Match {
	if x.stale || x.graph == nil {
		x.rebuild()
	}

	k := topK * 4
	if k < efSearch {
		k = efSearch
	}
	if k > len(x.entries) {
		k = len(x.entries)
	}
	nodes := x.graph.Search(vectorindex.ToFloat32(vector), k)

	matches := make([]vectorindex.Match, 0, len(nodes))
	for _, n := range nodes {
		e, ok := x.entries[n.Key]
		if !ok {
			continue
		}
		matches = append(matches, vectorindex.Match{
			ID:       n.Key,
			Score:    vectorindex.CosineSimilarity(vector, e.vector),
			Metadata: copyMetadata(e.metadata),
		})
	}
	return matches
}

// Len returns the number of stored embeddings
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// rebuild must be called with mu held
func (x *Index) rebuild() {
	g := newGraph()

	ids := make([]string, 0, len(x.entries))
	for id := range x.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		g.Add(hnsw.MakeNode(id, vectorindex.ToFloat32(x.entries[id].vector)))
	}

	x.graph = g
	x.stale = false
}

func copyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var _ vectorindex.Index = (*Index)(nil)
