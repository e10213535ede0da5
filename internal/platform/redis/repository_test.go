package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"popupforge/internal/popup"
)

type stubCatalog struct {
	list  []*popup.Message
	err   error
	calls int
}

func (s *stubCatalog) ActiveMessages(context.Context) ([]*popup.Message, error) {
	s.calls++
	return s.list, s.err
}

// unreachableClient points at a port nothing listens on.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestMetaKey(t *testing.T) {
	if got := metaKey("msg-42"); got != "popup:msg-42:meta" {
		t.Fatalf("metaKey = %q", got)
	}
}

func TestActiveMessagesFallsBackWhenRedisIsDown(t *testing.T) {
	fallback := &stubCatalog{list: []*popup.Message{{ID: "msg-1", Status: popup.StatusActive}}}
	repo := NewRepository(unreachableClient(t), fallback, time.Minute, nil)

	list, err := repo.ActiveMessages(context.Background())
	if err != nil {
		t.Fatalf("ActiveMessages: %v", err)
	}
	if len(list) != 1 || list[0].ID != "msg-1" || fallback.calls != 1 {
		t.Fatalf("list=%v calls=%d", list, fallback.calls)
	}
}

func TestActiveMessagesSurfacesStoreError(t *testing.T) {
	storeErr := errors.New("db down")
	repo := NewRepository(unreachableClient(t), &stubCatalog{err: storeErr}, time.Minute, nil)

	if _, err := repo.ActiveMessages(context.Background()); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestSaveMessageReportsRedisError(t *testing.T) {
	repo := NewRepository(unreachableClient(t), &stubCatalog{}, time.Minute, nil)
	err := repo.SaveMessage(context.Background(), &popup.Message{ID: "msg-1", Status: popup.StatusActive, Priority: popup.PriorityLow})
	if err == nil {
		t.Fatal("expected error from unreachable redis")
	}
}

// testRedis connects to REDIS_TEST_URL and flushes it. Tests using it are
// skipped unless the variable points at a disposable Redis database.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { rdb.Close() })
	if err := rdb.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return rdb
}

// racingCatalog runs onLoad after reading its list, standing in for an admin
// write that lands between the store read and the cache refill.
type racingCatalog struct {
	list   []*popup.Message
	onLoad func()
	calls  int
}

func (c *racingCatalog) ActiveMessages(context.Context) ([]*popup.Message, error) {
	c.calls++
	list := append([]*popup.Message(nil), c.list...)
	if c.onLoad != nil {
		hook := c.onLoad
		c.onLoad = nil
		hook()
	}
	return list, nil
}

func TestRefillSkippedWhenWriteRaces(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()

	for name, write := range map[string]func(*Repository) error{
		"pause": func(repo *Repository) error {
			return repo.SaveMessage(ctx, &popup.Message{ID: "m", Status: popup.StatusPaused})
		},
		"delete": func(repo *Repository) error {
			return repo.RemoveMessage(ctx, "m")
		},
	} {
		t.Run(name, func(t *testing.T) {
			if err := rdb.FlushDB(ctx).Err(); err != nil {
				t.Fatalf("flush: %v", err)
			}
			catalog := &racingCatalog{list: []*popup.Message{{ID: "m", Status: popup.StatusActive, Priority: popup.PriorityHigh}}}
			repo := NewRepository(rdb, catalog, time.Minute, nil)
			catalog.onLoad = func() {
				catalog.list = nil
				if err := write(repo); err != nil {
					t.Errorf("%s: %v", name, err)
				}
			}

			if _, err := repo.ActiveMessages(ctx); err != nil {
				t.Fatalf("cold read: %v", err)
			}
			if n, _ := rdb.Exists(ctx, warmKey).Result(); n != 0 {
				t.Fatal("stale refill armed the warm marker")
			}
			if n, _ := rdb.Exists(ctx, metaKey("m")).Result(); n != 0 {
				t.Fatal("stale refill restored the message")
			}

			list, err := repo.ActiveMessages(ctx)
			if err != nil {
				t.Fatalf("second read: %v", err)
			}
			if len(list) != 0 || catalog.calls != 2 {
				t.Fatalf("list=%+v calls=%d, want empty reload from store", list, catalog.calls)
			}
			if n, _ := rdb.Exists(ctx, warmKey).Result(); n != 1 {
				t.Fatal("uncontended refill did not arm the warm marker")
			}
		})
	}
}

func TestWarmRejectsStaleGeneration(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()
	repo := NewRepository(rdb, &stubCatalog{}, time.Minute, nil)

	gen, err := repo.generation(ctx)
	if err != nil {
		t.Fatalf("generation: %v", err)
	}
	if err := repo.RemoveMessage(ctx, "gone"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	stale := []*popup.Message{{ID: "gone", Status: popup.StatusActive}}
	if err := repo.warm(ctx, stale, gen); !errors.Is(err, errStaleRefill) {
		t.Fatalf("warm with stale generation: %v", err)
	}
	if err := repo.warm(ctx, nil, gen+1); err != nil {
		t.Fatalf("warm with current generation: %v", err)
	}
}

func TestRepositoryAgainstRedis(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()

	fallback := &stubCatalog{list: []*popup.Message{
		{ID: "low", Status: popup.StatusActive, Priority: popup.PriorityLow},
		{ID: "urgent", Status: popup.StatusActive, Priority: popup.PriorityUrgent},
	}}
	repo := NewRepository(rdb, fallback, time.Minute, nil)

	if _, err := repo.ActiveMessages(ctx); err != nil {
		t.Fatalf("cold read: %v", err)
	}
	list, err := repo.ActiveMessages(ctx)
	if err != nil {
		t.Fatalf("warm read: %v", err)
	}
	if fallback.calls != 1 {
		t.Fatalf("warm read hit the store: calls=%d", fallback.calls)
	}
	if len(list) != 2 || list[0].ID != "urgent" {
		t.Fatalf("unexpected cached list: %+v", list)
	}

	if err := repo.SaveMessage(ctx, &popup.Message{ID: "urgent", Status: popup.StatusPaused}); err != nil {
		t.Fatalf("save paused: %v", err)
	}
	list, _ = repo.ActiveMessages(ctx)
	if len(list) != 1 || list[0].ID != "low" {
		t.Fatalf("paused message still cached: %+v", list)
	}

	if err := repo.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := repo.ActiveMessages(ctx); err != nil || fallback.calls != 2 {
		t.Fatalf("expected reload after invalidate: err=%v calls=%d", err, fallback.calls)
	}
}
