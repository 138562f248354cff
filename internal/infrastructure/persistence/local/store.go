// Package local is the fallback backend: an in-process document store that
// can mirror itself to a JSON file.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence/gateway"
)

const Name = "local"

type Store struct {
	mu   sync.RWMutex
	path string
	data map[gateway.Collection]map[string]gateway.Record
}

// New opens the store backed by path, creating it on first write.
func New(path string) (*Store, error) {
	s := &Store{
		path: path,
		data: make(map[gateway.Collection]map[string]gateway.Record),
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read local store %s: %w", path, err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse local store %s: %w", path, err)
	}
	return s, nil
}

// NewMemory returns a store that never touches disk.
func NewMemory() *Store {
	return &Store{data: make(map[gateway.Collection]map[string]gateway.Record)}
}

func (s *Store) Name() string { return Name }

func (s *Store) Put(ctx context.Context, c gateway.Collection, r gateway.Record) error {
	if err := ctx.Err(); err != nil {
		return s.fail("put", c, err)
	}
	if r.ID == "" {
		return s.fail("put", c, errors.New("empty id"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.coll(c)
	prev, existed := coll[r.ID]
	r.UpdatedAt = time.Now().UTC()
	coll[r.ID] = r
	if err := s.flush("put", c); err != nil {
		if existed {
			coll[r.ID] = prev
		} else {
			delete(coll, r.ID)
		}
		return err
	}
	return nil
}

func (s *Store) GetAll(ctx context.Context, c gateway.Collection, f *gateway.Filter) ([]gateway.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, s.fail("get_all", c, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]gateway.Record, 0, len(s.data[c]))
	for _, r := range s.data[c] {
		if f != nil && !matches(r, f) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetOne(ctx context.Context, c gateway.Collection, id string) (*gateway.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, s.fail("get_one", c, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[c][id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *Store) Update(ctx context.Context, c gateway.Collection, id string, patch map[string]any) error {
	if err := ctx.Err(); err != nil {
		return s.fail("update", c, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.data[c][id]
	if !ok {
		return s.fail("update", c, gateway.ErrNotFound)
	}
	doc := map[string]any{}
	if err := json.Unmarshal(r.Data, &doc); err != nil {
		return s.fail("update", c, err)
	}
	for k, v := range patch {
		doc[k] = v
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return s.fail("update", c, err)
	}
	prev := r
	r.Data = raw
	r.UpdatedAt = time.Now().UTC()
	s.data[c][id] = r
	if err := s.flush("update", c); err != nil {
		s.data[c][id] = prev
		return err
	}
	return nil
}

func (s *Store) Move(ctx context.Context, from, to gateway.Collection, r gateway.Record) error {
	if err := ctx.Err(); err != nil {
		return s.fail("move", from, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.data[from][r.ID]
	if !ok {
		return s.fail("move", from, gateway.ErrNotFound)
	}
	dst := s.coll(to)
	prev, existed := dst[r.ID]
	delete(s.data[from], r.ID)
	r.UpdatedAt = time.Now().UTC()
	dst[r.ID] = r
	if err := s.flush("move", to); err != nil {
		if existed {
			dst[r.ID] = prev
		} else {
			delete(dst, r.ID)
		}
		s.data[from][r.ID] = src
		return err
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, c gateway.Collection, id string) error {
	if err := ctx.Err(); err != nil {
		return s.fail("delete", c, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.data[c][id]
	if !ok {
		return s.fail("delete", c, gateway.ErrNotFound)
	}
	delete(s.data[c], id)
	if err := s.flush("delete", c); err != nil {
		s.data[c][id] = prev
		return err
	}
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) coll(c gateway.Collection) map[string]gateway.Record {
	m, ok := s.data[c]
	if !ok {
		m = make(map[string]gateway.Record)
		s.data[c] = m
	}
	return m
}

// flush rewrites the whole file through a temp file + rename. Caller holds mu
// and undoes its change when flush fails, so memory never runs ahead of disk.
func (s *Store) flush(op string, c gateway.Collection) error {
	if s.path == "" {
		return nil
	}
	raw, err := json.Marshal(s.data)
	if err != nil {
		return s.fail(op, c, err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return s.fail(op, c, err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return s.fail(op, c, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return s.fail(op, c, err)
	}
	return nil
}

func (s *Store) fail(op string, c gateway.Collection, err error) error {
	return &gateway.Error{Backend: Name, Op: op, Collection: c, Err: err}
}

func matches(r gateway.Record, f *gateway.Filter) bool {
	doc := map[string]any{}
	if err := json.Unmarshal(r.Data, &doc); err != nil {
		return false
	}
	v, ok := doc[f.Field]
	if !ok || v == nil {
		return false
	}
	return fmt.Sprint(v) == f.Value
}
