package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"meiras_yachting/internal/app"
	"meiras_yachting/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	mu    sync.Mutex
	seq   int
	recs  map[domain.Kind]map[string]domain.Record
	order map[domain.Kind][]string
	lists int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		recs:  map[domain.Kind]map[string]domain.Record{},
		order: map[domain.Kind][]string{},
	}
}

func (f *fakeStore) Create(ctx context.Context, kind domain.Kind, rec domain.Record) (domain.Record, error) {
	if err := rec.Validate(kind); err != nil {
		return domain.Record{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	rec.ID = fmt.Sprintf("id-%d", f.seq)
	if f.recs[kind] == nil {
		f.recs[kind] = map[string]domain.Record{}
	}
	f.recs[kind][rec.ID] = rec
	f.order[kind] = append(f.order[kind], rec.ID)
	return rec, nil
}

func (f *fakeStore) GetByID(ctx context.Context, kind domain.Kind, id string) (domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recs[kind][id]
	if !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) List(ctx context.Context, kind domain.Kind) ([]domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	out := make([]domain.Record, 0, len(f.order[kind]))
	for _, id := range f.order[kind] {
		out = append(out, f.recs[kind][id])
	}
	return out, nil
}

func (f *fakeStore) Replace(ctx context.Context, kind domain.Kind, id string, rec domain.Record) (domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.recs[kind][id]; !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	if err := rec.Validate(kind); err != nil {
		return domain.Record{}, err
	}
	rec.ID = id
	f.recs[kind][id] = rec
	return rec, nil
}

type fakeCache struct {
	store map[string][]byte
	dels  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels++
	delete(c.store, key)
	return nil
}

// ---- fixtures ----

func blueYacht() domain.Record {
	return domain.Record{
		Name:     domain.Pair("Mavi", "Blue"),
		Type:     domain.Pair("Motoryat", "Motoryacht"),
		Length:   20,
		People:   8,
		Cabin:    ptr(3),
		Location: domain.Pair("Bodrum", "Bodrum"),
		Features: domain.Pair([]string{"klima"}, []string{"AC"}),
		Images:   5,
	}
}

// ---- tests ----

func TestListLocalized_EN_WorkedExample(t *testing.T) {
	ctx := context.Background()
	svc := app.NewListingService(newFakeStore(), nil, 0)
	if _, err := svc.Create(ctx, domain.KindYacht, blueYacht()); err != nil {
		t.Fatalf("create: %v", err)
	}

	out, err := svc.ListLocalized(ctx, domain.KindYacht, "EN")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	b, _ := json.Marshal(out[0])
	want := `{"name":"Blue","type":"Motoryacht","length":20,"people":8,"cabin":3,"location":"Bodrum","features":["AC"],"images":5}`
	if string(b) != want {
		t.Fatalf("unexpected projection:\n got %s\nwant %s", b, want)
	}
}

func TestListLocalized_ScalarFieldsIgnoreLanguage(t *testing.T) {
	ctx := context.Background()
	svc := app.NewListingService(newFakeStore(), nil, 0)
	legacy := blueYacht()
	legacy.Name = domain.Scalar("Mavi")
	legacy.Location = domain.Scalar("Göcek")
	legacy.Features = domain.Scalar([]string{"klima", "AC"})
	if _, err := svc.Create(ctx, domain.KindYacht, legacy); err != nil {
		t.Fatalf("create: %v", err)
	}

	tr, err := svc.ListLocalized(ctx, domain.KindYacht, "tr")
	if err != nil {
		t.Fatalf("tr: %v", err)
	}
	en, err := svc.ListLocalized(ctx, domain.KindYacht, "en")
	if err != nil {
		t.Fatalf("en: %v", err)
	}
	if *tr[0].Name != *en[0].Name || *tr[0].Location != *en[0].Location {
		t.Fatalf("scalar fields differ: tr=%+v en=%+v", tr[0], en[0])
	}
	if len(tr[0].Features) != 2 || len(en[0].Features) != 2 {
		t.Fatalf("scalar features not passed through: tr=%v en=%v", tr[0].Features, en[0].Features)
	}
	// pair-shaped type still follows the language
	if *tr[0].Type != "Motoryat" || *en[0].Type != "Motoryacht" {
		t.Fatalf("pair field not localized: tr=%s en=%s", *tr[0].Type, *en[0].Type)
	}
}

func TestListLocalized_MissingKeyIsAbsent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := app.NewListingService(store, nil, 0)

	// historical document written before the en translation existed
	rec := blueYacht()
	rec.ID = "legacy"
	rec.Location = domain.Localized[string]{Shape: domain.ShapePair, TR: ptr("Fethiye")}
	store.recs[domain.KindYacht] = map[string]domain.Record{"legacy": rec}
	store.order[domain.KindYacht] = []string{"legacy"}

	out, err := svc.ListLocalized(ctx, domain.KindYacht, "en")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if out[0].Location != nil {
		t.Fatalf("expected absent location, got %q", *out[0].Location)
	}
	b, _ := json.Marshal(out[0])
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := m["location"]; ok {
		t.Fatalf("location key should be omitted: %s", b)
	}
}

func TestListLocalized_RejectsUnknownLanguage(t *testing.T) {
	svc := app.NewListingService(newFakeStore(), nil, 0)
	_, err := svc.ListLocalized(context.Background(), domain.KindYacht, "de")
	if !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestListLocalized_CacheHitThenInvalidatedOnUpdate(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cache := &fakeCache{}
	svc := app.NewListingService(store, cache, 10*time.Minute)

	created, err := svc.Create(ctx, domain.KindYacht, blueYacht())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.ListLocalized(ctx, domain.KindYacht, "tr"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := svc.ListLocalized(ctx, domain.KindYacht, "tr"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if store.lists != 1 {
		t.Fatalf("expected second read from cache, store listed %d times", store.lists)
	}

	upd := blueYacht()
	upd.Name = domain.Pair("Beyaz", "White")
	if _, err := svc.UpdateOne(ctx, domain.KindYacht, created.ID, upd); err != nil {
		t.Fatalf("update: %v", err)
	}

	out, err := svc.ListLocalized(ctx, domain.KindYacht, "tr")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if *out[0].Name != "Beyaz" {
		t.Fatalf("expected fresh data after update, got %s", *out[0].Name)
	}
	if store.lists != 2 {
		t.Fatalf("expected cache eviction, store listed %d times", store.lists)
	}
}

func TestCreateThenGetOne_EqualExceptID(t *testing.T) {
	ctx := context.Background()
	svc := app.NewListingService(newFakeStore(), nil, 0)

	in := blueYacht()
	in.ID = "client-chosen"
	created, err := svc.Create(ctx, domain.KindYacht, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.ID == "client-chosen" {
		t.Fatalf("expected server-assigned id, got %q", created.ID)
	}

	got, err := svc.GetOne(ctx, domain.KindYacht, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := blueYacht()
	want.ID = created.ID
	a, _ := json.Marshal(got)
	b, _ := json.Marshal(want)
	if string(a) != string(b) {
		t.Fatalf("round trip mismatch:\n got %s\nwant %s", a, b)
	}
}

func TestUpdateOne_UnknownID(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := app.NewListingService(store, nil, 0)
	created, _ := svc.Create(ctx, domain.KindYacht, blueYacht())

	upd := blueYacht()
	upd.Name = domain.Scalar("Ghost")
	_, err := svc.UpdateOne(ctx, domain.KindYacht, "missing", upd)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	all, _ := svc.ListAll(ctx, domain.KindYacht)
	if len(all) != 1 || all[0].ID != created.ID || all[0].Name.Shape != domain.ShapePair {
		t.Fatalf("store changed after failed update: %+v", all)
	}
}

func TestUpdateOne_ValidationError(t *testing.T) {
	ctx := context.Background()
	svc := app.NewListingService(newFakeStore(), nil, 0)
	created, _ := svc.Create(ctx, domain.KindYacht, blueYacht())

	bad := blueYacht()
	bad.People = 0
	if _, err := svc.UpdateOne(ctx, domain.KindYacht, created.ID, bad); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestListAll_BrokerageHasNoCabin(t *testing.T) {
	ctx := context.Background()
	svc := app.NewListingService(newFakeStore(), nil, 0)
	if _, err := svc.Create(ctx, domain.KindBrokerage, blueYacht()); err != nil {
		t.Fatalf("create: %v", err)
	}
	all, err := svc.ListAll(ctx, domain.KindBrokerage)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all[0].Cabin != nil {
		t.Fatalf("brokerage record leaked cabin: %d", *all[0].Cabin)
	}
}

func ptr[T any](v T) *T { return &v }
