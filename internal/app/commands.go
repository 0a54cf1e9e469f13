package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"meiras_yachting/internal/domain"
)

type ImportReport struct {
	Created []string
	Failed  map[int]error // index in the input batch -> error
}

// ImportService bulk-loads records through the listing write path so cache
// invalidation and validation stay in one place.
type ImportService struct {
	listing *ListingService
	workers int64
}

func NewImportService(l *ListingService, workers int) *ImportService {
	if workers <= 0 {
		workers = 8
	}
	return &ImportService{listing: l, workers: int64(workers)}
}

// Import creates every record with at most `workers` in flight. A failed
// record does not stop the batch; ctx cancellation does, and the report then
// still lists everything inserted before it.
func (s *ImportService) Import(ctx context.Context, kind domain.Kind, recs []domain.Record) (ImportReport, error) {
	rep := ImportReport{Failed: map[int]error{}}
	sem := semaphore.NewWeighted(s.workers)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	created := make([]string, len(recs))
	finish := func(err error) (ImportReport, error) {
		wg.Wait()
		for _, id := range created {
			if id != "" {
				rep.Created = append(rep.Created, id)
			}
		}
		return rep, err
	}

	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			return finish(err)
		}
		wg.Add(1)
		go func(i int, rec domain.Record) {
			defer wg.Done()
			defer sem.Release(1)

			out, err := s.listing.Create(ctx, kind, rec)
			if err != nil {
				log.Warn().Int("index", i).Str("kind", string(kind)).Err(err).Msg("import failed")
				mu.Lock()
				rep.Failed[i] = err
				mu.Unlock()
				return
			}
			created[i] = out.ID
		}(i, rec)
	}
	return finish(ctx.Err())
}
