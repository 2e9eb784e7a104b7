package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type city struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestNewServiceWithoutClientIsNoop(t *testing.T) {
	svc := NewService(nil)

	var dest city
	if err := svc.Get(context.Background(), "k", &dest); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get() error = %v, want ErrCacheMiss", err)
	}
	if err := svc.Set(context.Background(), "k", city{ID: "1"}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if n, err := svc.Incr(context.Background(), "gen"); n != 0 || err != nil {
		t.Fatalf("Incr() = %d, %v", n, err)
	}
}

func TestNoopGetOrSetAlwaysFetches(t *testing.T) {
	svc := NewNoop()
	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return []city{{ID: "1", Name: "Pune"}, {ID: "2", Name: "Mumbai"}}, nil
	}

	for i := 0; i < 2; i++ {
		var dest []city
		if err := svc.GetOrSet(context.Background(), "cities", time.Hour, fetch, &dest); err != nil {
			t.Fatalf("GetOrSet() error = %v", err)
		}
		if len(dest) != 2 || dest[1].Name != "Mumbai" {
			t.Fatalf("dest = %+v", dest)
		}
	}
	if calls != 2 {
		t.Errorf("fetcher called %d times, want 2", calls)
	}
}

func TestNoopGetOrSetPropagatesFetchError(t *testing.T) {
	want := errors.New("db down")
	var dest []city
	err := NewNoop().GetOrSet(context.Background(), "cities", time.Hour, func() (interface{}, error) {
		return nil, want
	}, &dest)
	if !errors.Is(err, want) {
		t.Fatalf("GetOrSet() error = %v, want %v", err, want)
	}
}

// counters keeps integer keys in memory; everything else misses
type counters struct {
	noop
	values map[string]int64
	err    error
}

func (c *counters) Get(_ context.Context, key string, dest interface{}) error {
	if c.err != nil {
		return c.err
	}
	n, ok := c.values[key]
	if !ok {
		return ErrCacheMiss
	}
	raw, _ := json.Marshal(n)
	return json.Unmarshal(raw, dest)
}

func (c *counters) Incr(_ context.Context, key string) (int64, error) {
	c.values[key]++
	return c.values[key], nil
}

func TestVersionedKey(t *testing.T) {
	ctx := context.Background()
	c := &counters{values: map[string]int64{}}

	before, err := VersionedKey(ctx, c, "map:s1", "epoch", "gen:s1")
	if err != nil {
		t.Fatalf("VersionedKey() error = %v", err)
	}
	if before != "map:s1:v0:v0" {
		t.Errorf("key = %q, want map:s1:v0:v0", before)
	}

	if _, err := c.Incr(ctx, "gen:s1"); err != nil {
		t.Fatal(err)
	}
	after, _ := VersionedKey(ctx, c, "map:s1", "epoch", "gen:s1")
	if after != "map:s1:v0:v1" {
		t.Errorf("key after bump = %q, want map:s1:v0:v1", after)
	}

	other, _ := VersionedKey(ctx, c, "map:s2", "epoch", "gen:s2")
	if other != "map:s2:v0:v0" {
		t.Errorf("unrelated key = %q, want map:s2:v0:v0", other)
	}
}

func TestVersionedKeyReportsCounterErrors(t *testing.T) {
	want := errors.New("redis down")
	if _, err := VersionedKey(context.Background(), &counters{err: want}, "k", "gen"); !errors.Is(err, want) {
		t.Fatalf("VersionedKey() error = %v, want %v", err, want)
	}
}
