package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"meiras_yachting/internal/domain"
)

type ListingService struct {
	store    domain.RecordStore
	cache    domain.Cache
	cacheTTL time.Duration
}

// NewListingService wires the store and an optional cache. A nil cache or a
// zero TTL disables caching.
func NewListingService(s domain.RecordStore, c domain.Cache, ttl time.Duration) *ListingService {
	return &ListingService{store: s, cache: c, cacheTTL: ttl}
}

func (s *ListingService) caching() bool { return s.cache != nil && s.cacheTTL > 0 }

func listKey(kind domain.Kind, lang domain.Lang) string {
	return fmt.Sprintf("records:%s:%s", kind, lang)
}

// ListAll returns full records restricted to the fields the kind carries.
func (s *ListingService) ListAll(ctx context.Context, kind domain.Kind) ([]domain.Record, error) {
	recs, err := s.store.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Record, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ForKind(kind))
	}
	return out, nil
}

func (s *ListingService) ListLocalized(ctx context.Context, kind domain.Kind, lang string) ([]domain.FlatRecord, error) {
	l, err := domain.ParseLang(lang)
	if err != nil {
		return nil, err
	}

	key := listKey(kind, l)
	if s.caching() {
		var cached []domain.FlatRecord
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}

	recs, err := s.ListAll(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := ProjectAll(recs, l)

	if s.caching() {
		if err := s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("listing cache set failed")
		}
	}
	return out, nil
}

func (s *ListingService) GetOne(ctx context.Context, kind domain.Kind, id string) (domain.Record, error) {
	r, err := s.store.GetByID(ctx, kind, id)
	if err != nil {
		return domain.Record{}, err
	}
	return r.ForKind(kind), nil
}

func (s *ListingService) Create(ctx context.Context, kind domain.Kind, rec domain.Record) (domain.Record, error) {
	rec.ID = ""
	out, err := s.store.Create(ctx, kind, rec.ForKind(kind))
	if err != nil {
		return domain.Record{}, err
	}
	s.invalidate(ctx, kind)
	return out, nil
}

// UpdateOne replaces the stored document as a whole.
func (s *ListingService) UpdateOne(ctx context.Context, kind domain.Kind, id string, rec domain.Record) (domain.Record, error) {
	rec.ID = ""
	out, err := s.store.Replace(ctx, kind, id, rec.ForKind(kind))
	if err != nil {
		return domain.Record{}, err
	}
	s.invalidate(ctx, kind)
	return out, nil
}

func (s *ListingService) invalidate(ctx context.Context, kind domain.Kind) {
	if s.cache == nil {
		return
	}
	for _, l := range []domain.Lang{domain.LangTR, domain.LangEN} {
		_ = s.cache.Del(ctx, listKey(kind, l))
	}
}
