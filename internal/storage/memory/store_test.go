package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meiras_yachting/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func yacht(name string) domain.Record {
	return domain.Record{
		Name:     domain.Scalar(name),
		Type:     domain.Pair("Gulet", "Gulet"),
		Length:   20,
		People:   8,
		Cabin:    ptr(4),
		Location: domain.Scalar("Bodrum"),
		Images:   1,
	}
}

func TestStore_CRUD(t *testing.T) {
	s := New()
	ctx := context.Background()

	a, err := s.Create(ctx, domain.KindYacht, yacht("A"))
	require.NoError(t, err)
	b, err := s.Create(ctx, domain.KindYacht, yacht("B"))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	got, err := s.GetByID(ctx, domain.KindYacht, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	all, err := s.List(ctx, domain.KindYacht)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Name.Value)

	_, err = s.Replace(ctx, domain.KindYacht, "missing", yacht("C"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	all, _ = s.List(ctx, domain.KindYacht)
	assert.Len(t, all, 2)

	upd, err := s.Replace(ctx, domain.KindYacht, b.ID, yacht("C"))
	require.NoError(t, err)
	assert.Equal(t, b.ID, upd.ID)
	got, _ = s.GetByID(ctx, domain.KindYacht, b.ID)
	assert.Equal(t, "C", got.Name.Value)

	empty, err := s.List(ctx, domain.KindBrokerage)
	require.NoError(t, err)
	assert.NotNil(t, empty)
}

func TestStore_ConcurrentCreates(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Create(context.Background(), domain.KindYacht, yacht("x"))
		}()
	}
	wg.Wait()
	all, err := s.List(context.Background(), domain.KindYacht)
	require.NoError(t, err)
	assert.Len(t, all, 50)
}
