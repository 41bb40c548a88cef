// Package vector provides an in-memory vector index for local serving and tests.
package vector

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/vibelabs/vibesearch/internal/models"
)

// MemoryIndex is an in-memory vector index using brute-force search. Suitable
// for the local serving mode and tests; the venue datasets are a few thousand
// vectors, well under where an ANN structure pays off.
type MemoryIndex struct {
	dimensions int
	metric     Metric
	ids        []string
	vectors    [][]float32
	metas      []*models.PlaceMeta
	mu         sync.RWMutex
}

// NewMemoryIndex creates an in-memory vector index with the given dimension and metric.
func NewMemoryIndex(dimensions int, metric Metric) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if metric != MetricInnerProduct && metric != MetricL2 {
		return nil, fmt.Errorf("unknown metric: %s", metric)
	}
	return &MemoryIndex{
		dimensions: dimensions,
		metric:     metric,
		ids:        make([]string, 0),
		vectors:    make([][]float32, 0),
		metas:      make([]*models.PlaceMeta, 0),
	}, nil
}

// Metric returns the score scale this index was built with.
func (m *MemoryIndex) Metric() Metric {
	return m.metric
}

// Add appends vectors with the given IDs and optional metadata.
// metas may be nil or shorter than ids; missing entries are stored as nil.
func (m *MemoryIndex) Add(ctx context.Context, ids []string, vectors [][]float32, metas []*models.PlaceMeta) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		if len(vectors[i]) != m.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vectors[i]), m.dimensions)
		}
		vec := make([]float32, m.dimensions)
		copy(vec, vectors[i])
		m.ids = append(m.ids, id)
		m.vectors = append(m.vectors, vec)
		if metas != nil && i < len(metas) {
			m.metas = append(m.metas, metas[i])
		} else {
			m.metas = append(m.metas, nil)
		}
	}
	return nil
}

// Query returns the top-k nearest vectors. For MetricInnerProduct higher
// scores rank first; for MetricL2 lower distances rank first. Scores are
// returned raw on the index's own scale.
func (m *MemoryIndex) Query(ctx context.Context, query []float32, k int) ([]*Match, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.ids) == 0 {
		return nil, nil
	}
	scores := make([]*Match, len(m.ids))
	for i, vec := range m.vectors {
		var score float64
		if m.metric == MetricL2 {
			score = SquaredL2(query, vec)
		} else {
			score = InnerProduct(query, vec)
		}
		scores[i] = &Match{ID: m.ids[i], Score: score, Meta: m.metas[i]}
	}
	less := func(i, j int) bool { return scores[i].Score > scores[j].Score }
	if m.metric == MetricL2 {
		less = func(i, j int) bool { return scores[i].Score < scores[j].Score }
	}
	sort.Slice(scores, less)
	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

// Save persists the index to path. Directory is created if needed. Format:
// metric marker (1), dimension (4), n (4), then per vector: idLen (4), id bytes,
// metaLen (4), meta JSON, vector (dimension*4 bytes).
func (m *MemoryIndex) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	metricByte := byte(0)
	if m.metric == MetricL2 {
		metricByte = 1
	}
	if _, err := f.Write([]byte{metricByte}); err != nil {
		return fmt.Errorf("write metric: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(m.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(m.ids))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i, id := range m.ids {
		idBytes := []byte(id)
		if err := binary.Write(f, binary.LittleEndian, uint32(len(idBytes))); err != nil {
			return fmt.Errorf("write id len: %w", err)
		}
		if _, err := f.Write(idBytes); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		var metaBytes []byte
		if m.metas[i] != nil {
			metaBytes, err = json.Marshal(m.metas[i])
			if err != nil {
				return fmt.Errorf("marshal meta: %w", err)
			}
		}
		if err := binary.Write(f, binary.LittleEndian, uint32(len(metaBytes))); err != nil {
			return fmt.Errorf("write meta len: %w", err)
		}
		if len(metaBytes) > 0 {
			if _, err := f.Write(metaBytes); err != nil {
				return fmt.Errorf("write meta: %w", err)
			}
		}
		if _, err := f.Write(float32SliceToBytes(m.vectors[i])); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load reads the index from path and replaces the in-memory contents.
// Dimensions and metric must match. A missing file is not an error.
func (m *MemoryIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	metricByte := make([]byte, 1)
	if _, err := io.ReadFull(f, metricByte); err != nil {
		return fmt.Errorf("read metric: %w", err)
	}
	fileMetric := MetricInnerProduct
	if metricByte[0] == 1 {
		fileMetric = MetricL2
	}
	if fileMetric != m.metric {
		return fmt.Errorf("metric mismatch: file has %s, index expects %s", fileMetric, m.metric)
	}
	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != m.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, index expects %d", dim, m.dimensions)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = make([]string, 0, n)
	m.vectors = make([][]float32, 0, n)
	m.metas = make([]*models.PlaceMeta, 0, n)
	buf := make([]byte, m.dimensions*4)
	for i := uint32(0); i < n; i++ {
		var idLen uint32
		if err := binary.Read(f, binary.LittleEndian, &idLen); err != nil {
			return fmt.Errorf("read id len: %w", err)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(f, idBytes); err != nil {
			return fmt.Errorf("read id: %w", err)
		}
		var metaLen uint32
		if err := binary.Read(f, binary.LittleEndian, &metaLen); err != nil {
			return fmt.Errorf("read meta len: %w", err)
		}
		var meta *models.PlaceMeta
		if metaLen > 0 {
			metaBytes := make([]byte, metaLen)
			if _, err := io.ReadFull(f, metaBytes); err != nil {
				return fmt.Errorf("read meta: %w", err)
			}
			meta = &models.PlaceMeta{}
			if err := json.Unmarshal(metaBytes, meta); err != nil {
				return fmt.Errorf("unmarshal meta: %w", err)
			}
		}
		if _, err := io.ReadFull(f, buf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		m.ids = append(m.ids, string(idBytes))
		m.vectors = append(m.vectors, bytesToFloat32Slice(buf))
		m.metas = append(m.metas, meta)
	}
	return nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
