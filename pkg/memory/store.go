package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Embedder turns text into vectors for similarity search. Satisfied by
// the inference provider's embedding endpoint.
type Embedder interface {
	EmbedText(ctx context.Context, texts []string) ([][]float32, error)
}

// Storage persists memory records plus their embeddings in one JSON file.
type Storage struct {
	mu         sync.Mutex
	path       string
	records    []Record
	embeddings [][]float32
	embedder   Embedder
	logger     *slog.Logger
}

// storeFile is the on-disk layout. Records and embeddings are parallel
// slices; a record whose embedding failed holds a nil vector.
type storeFile struct {
	Memories   []Record    `json:"memories"`
	Embeddings [][]float32 `json:"embeddings"`
}

// NewStorage opens (or creates) the memory file under dir. A missing or
// unreadable data directory is a startup failure.
func NewStorage(dir string, embedder Embedder, logger *slog.Logger) (*Storage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create memory directory: %w", err)
	}

	s := &Storage{
		path:     filepath.Join(dir, "memories.json"),
		embedder: embedder,
		logger:   logger.With("component", "memory.storage"),
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read memory file: %w", err)
	}

	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse memory file %s: %w", s.path, err)
	}

	s.records = f.Memories
	s.embeddings = f.Embeddings

	// Keep the slices parallel even if the file was edited by hand
	for len(s.embeddings) < len(s.records) {
		s.embeddings = append(s.embeddings, nil)
	}
	s.embeddings = s.embeddings[:len(s.records)]

	s.logger.Info("memories loaded", "count", len(s.records))
	return nil
}

// save rewrites the memory file. Caller holds the mutex.
func (s *Storage) save() error {
	data, err := json.Marshal(storeFile{Memories: s.records, Embeddings: s.embeddings})
	if err != nil {
		return fmt.Errorf("marshal memories: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write memory file: %w", err)
	}
	return nil
}

// Store embeds and persists a record. An embedding failure degrades the
// record to recency-only retrieval instead of dropping it.
func (s *Storage) Store(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	var vec []float32
	if s.embedder != nil && rec.Content != "" {
		vecs, err := s.embedder.EmbedText(ctx, []string{rec.Content})
		if err != nil || len(vecs) == 0 {
			s.logger.Warn("embedding failed, storing without vector", "error", err)
		} else {
			vec = vecs[0]
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	s.embeddings = append(s.embeddings, vec)

	if err := s.save(); err != nil {
		return rec, err
	}
	return rec, nil
}

// Search returns up to limit records for the user ranked by cosine
// similarity to the query. Records without embeddings, or all records when
// the query cannot be embedded, fall back to most-recent-first.
func (s *Storage) Search(ctx context.Context, userID, query string, limit int) []Record {
	if query == "" || limit <= 0 {
		return nil
	}

	var queryVec []float32
	if s.embedder != nil {
		vecs, err := s.embedder.EmbedText(ctx, []string{query})
		if err != nil || len(vecs) == 0 {
			s.logger.Warn("query embedding failed, falling back to recency", "error", err)
		} else {
			queryVec = vecs[0]
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type scored struct {
		rec   Record
		score float64
	}

	var candidates []scored
	for i, rec := range s.records {
		if rec.UserID != userID {
			continue
		}
		score := math.Inf(-1)
		if queryVec != nil && s.embeddings[i] != nil {
			score = cosineSimilarity(queryVec, s.embeddings[i])
		}
		candidates = append(candidates, scored{rec: rec, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].rec.Timestamp.After(candidates[j].rec.Timestamp)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]Record, len(candidates))
	for i, c := range candidates {
		out[i] = c.rec
	}
	return out
}

// Count returns the number of stored records.
func (s *Storage) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
