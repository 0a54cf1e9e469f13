// Package memory is a process-local RecordStore for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"meiras_yachting/internal/adapters/observability"
	"meiras_yachting/internal/domain"
)

const backend = "memory"

type Store struct {
	mu    sync.RWMutex
	recs  map[domain.Kind]map[string]domain.Record
	order map[domain.Kind][]string
}

func New() *Store {
	return &Store{
		recs:  map[domain.Kind]map[string]domain.Record{},
		order: map[domain.Kind][]string{},
	}
}

func (s *Store) Create(ctx context.Context, kind domain.Kind, rec domain.Record) (out domain.Record, err error) {
	defer func(start time.Time) { observability.ObserveStore(backend, "create", err, time.Since(start)) }(time.Now())

	rec = rec.ForKind(kind)
	if err := rec.Validate(kind); err != nil {
		return domain.Record{}, err
	}
	rec.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recs[kind] == nil {
		s.recs[kind] = map[string]domain.Record{}
	}
	s.recs[kind][rec.ID] = rec
	s.order[kind] = append(s.order[kind], rec.ID)
	return rec, nil
}

func (s *Store) GetByID(ctx context.Context, kind domain.Kind, id string) (out domain.Record, err error) {
	defer func(start time.Time) { observability.ObserveStore(backend, "get", err, time.Since(start)) }(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[kind][id]
	if !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	return rec, nil
}

func (s *Store) List(ctx context.Context, kind domain.Kind) (out []domain.Record, err error) {
	defer func(start time.Time) { observability.ObserveStore(backend, "list", err, time.Since(start)) }(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make([]domain.Record, 0, len(s.order[kind]))
	for _, id := range s.order[kind] {
		recs = append(recs, s.recs[kind][id])
	}
	return recs, nil
}

func (s *Store) Replace(ctx context.Context, kind domain.Kind, id string, rec domain.Record) (out domain.Record, err error) {
	defer func(start time.Time) { observability.ObserveStore(backend, "replace", err, time.Since(start)) }(time.Now())

	rec = rec.ForKind(kind)
	if err := rec.Validate(kind); err != nil {
		return domain.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[kind][id]; !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	rec.ID = id
	s.recs[kind][id] = rec
	return rec, nil
}
