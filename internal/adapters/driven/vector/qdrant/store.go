// Package qdrant provides a VectorStore backed by the Qdrant REST API.
// Each logical collection maps to a Qdrant collection named
// "<prefix>_<collection>", created on first write with cosine distance.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultURL     = "http://localhost:6333"
	DefaultPrefix  = "lectern"
	DefaultTimeout = 15 * time.Second
)

const (
	payloadIDKey       = "_lectern_id"
	payloadDocumentKey = "_lectern_document"
	maxErrorBodyBytes  = 1024
)

var pointNamespace = uuid.MustParse("3b8f9a52-6c1d-4e0a-9f57-2d7c1e4b8a90")

// errCollectionMissing marks a 404 on a collection path.
var errCollectionMissing = errors.New("collection does not exist")

// Config holds configuration for the Qdrant store.
type Config struct {
	// URL is the REST endpoint (default: http://localhost:6333).
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Prefix namespaces collection names (default: lectern).
	Prefix string

	// Timeout is the per-request timeout (default: 15s).
	Timeout time.Duration
}

// Store talks to Qdrant over HTTP.
type Store struct {
	client  *http.Client
	baseURL string
	apiKey  string
	prefix  string

	mu      sync.Mutex
	created map[string]bool
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
}

type scoredPoint struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

// NewStore creates a Qdrant store. No request is made until first use.
func NewStore(cfg Config) *Store {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		prefix:  cfg.Prefix,
		created: make(map[string]bool),
	}
}

// Upsert writes records as points, creating the collection if needed.
func (s *Store) Upsert(ctx context.Context, collection string, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]map[string]any, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("%w: record without id", domain.ErrInvalidInput)
		}
		if len(r.Vector) != len(records[0].Vector) {
			return fmt.Errorf("%w: record %q has %d dimensions, expected %d",
				domain.ErrInvalidInput, r.ID, len(r.Vector), len(records[0].Vector))
		}
		payload := make(map[string]any, len(r.Metadata)+2)
		for k, v := range r.Metadata {
			payload[k] = v
		}
		payload[payloadIDKey] = r.ID
		payload[payloadDocumentKey] = r.Document
		points = append(points, map[string]any{
			"id":      pointID(r.ID),
			"vector":  r.Vector,
			"payload": payload,
		})
	}

	if err := s.ensureCollection(ctx, collection, len(records[0].Vector)); err != nil {
		return err
	}
	return s.doJSON(ctx, "upsert", http.MethodPut,
		s.collectionPath(collection, "/points?wait=true"), map[string]any{"points": points}, nil)
}

// Query runs a filtered similarity search.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, k int, filter driven.Filter) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
		"with_vector":  false,
	}
	if f := translateFilter(filter); f != nil {
		req["filter"] = f
	}

	var points []scoredPoint
	err := s.doJSON(ctx, "query", http.MethodPost, s.collectionPath(collection, "/points/search"), req, &points)
	if errors.Is(err, errCollectionMissing) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	hits := make([]driven.VectorHit, 0, len(points))
	for _, p := range points {
		hit := driven.VectorHit{Similarity: p.Score, Metadata: make(map[string]any, len(p.Payload))}
		for key, v := range p.Payload {
			switch key {
			case payloadIDKey:
				hit.ID, _ = v.(string)
			case payloadDocumentKey:
				hit.Document, _ = v.(string)
			default:
				hit.Metadata[key] = normaliseNumber(v)
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Delete removes points matching filter. An empty filter drops the collection.
func (s *Store) Delete(ctx context.Context, collection string, filter driven.Filter) error {
	var err error
	if len(filter) == 0 {
		err = s.doJSON(ctx, "drop", http.MethodDelete, s.collectionPath(collection, ""), nil, nil)
		s.mu.Lock()
		delete(s.created, collection)
		s.mu.Unlock()
	} else {
		err = s.doJSON(ctx, "delete", http.MethodPost,
			s.collectionPath(collection, "/points/delete?wait=true"),
			map[string]any{"filter": translateFilter(filter)}, nil)
	}
	if errors.Is(err, errCollectionMissing) {
		return nil
	}
	return err
}

// Count returns the exact number of points in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := s.doJSON(ctx, "count", http.MethodPost,
		s.collectionPath(collection, "/points/count"), map[string]any{"exact": true}, &out)
	if errors.Is(err, errCollectionMissing) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Close releases resources.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Store) ensureCollection(ctx context.Context, collection string, dims int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created[collection] {
		return nil
	}

	err := s.doJSON(ctx, "get_collection", http.MethodGet, s.collectionPath(collection, ""), nil, nil)
	if errors.Is(err, errCollectionMissing) {
		body := map[string]any{
			"vectors": map[string]any{
				"size":     dims,
				"distance": "Cosine",
			},
		}
		err = s.doJSON(ctx, "create_collection", http.MethodPut, s.collectionPath(collection, ""), body, nil)
	}
	if err != nil {
		return err
	}
	s.created[collection] = true
	return nil
}

func (s *Store) collectionPath(collection, suffix string) string {
	return "/collections/" + s.prefix + "_" + collection + suffix
}

func (s *Store) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return fmt.Errorf("qdrant %s: encode request: %w", op, err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("qdrant %s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant %s: %v", domain.ErrIndex, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: qdrant %s: read response: %v", domain.ErrIndex, op, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("qdrant %s: %w", op, errCollectionMissing)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: qdrant %s (status %d): %s", domain.ErrIndex, op, resp.StatusCode, truncateBody(raw))
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: qdrant %s: decode envelope: %v", domain.ErrIndex, op, err)
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(env.Result))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: qdrant %s: decode result: %v", domain.ErrIndex, op, err)
	}
	return nil
}

// pointID maps an arbitrary record ID to the UUID Qdrant requires.
func pointID(id string) string {
	return uuid.NewSHA1(pointNamespace, []byte(id)).String()
}

// translateFilter turns an exact-match conjunction into a Qdrant "must"
// filter. Keys are sorted so requests are deterministic.
func translateFilter(filter driven.Filter) map[string]any {
	if len(filter) == 0 {
		return nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	must := make([]any, 0, len(keys))
	for _, k := range keys {
		must = append(must, map[string]any{
			"key":   k,
			"match": map[string]any{"value": filter[k]},
		})
	}
	return map[string]any{"must": must}
}

// normaliseNumber turns integral JSON numbers into int and the rest into
// float64, so payload metadata matches what was written.
func normaliseNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	f, _ := n.Float64()
	return f
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}
