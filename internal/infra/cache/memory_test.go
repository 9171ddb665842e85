package cache

import (
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheStaleness(t *testing.T) {
	now := time.Date(2020, 1, 1, 6, 0, 0, 0, time.UTC)
	c := NewMemoryWithClock(func() time.Time { return now })

	if _, err := c.Get("k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("ожидали промах на пустом кэше, получили %v", err)
	}

	if err := c.Set("k", []byte("v"), 5*time.Minute); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	data, err := c.Get("k")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if string(data) != "v" {
		t.Fatalf("ожидали v, получили %s", data)
	}

	now = now.Add(5*time.Minute - time.Second)
	if _, err := c.Get("k"); err != nil {
		t.Fatalf("запись ещё свежая, получили %v", err)
	}

	now = now.Add(2 * time.Second)
	if _, err := c.Get("k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("ожидали промах после истечения TTL, получили %v", err)
	}
}

func TestMemoryCacheOverwrite(t *testing.T) {
	now := time.Date(2020, 1, 1, 6, 0, 0, 0, time.UTC)
	c := NewMemoryWithClock(func() time.Time { return now })

	_ = c.Set("k", []byte("old"), time.Minute)
	now = now.Add(2 * time.Minute)
	_ = c.Set("k", []byte("new"), time.Minute)

	data, err := c.Get("k")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if string(data) != "new" {
		t.Fatalf("ожидали перезаписанное значение, получили %s", data)
	}
}

func TestMemoryCacheOnce(t *testing.T) {
	now := time.Date(2020, 1, 1, 6, 0, 0, 0, time.UTC)
	c := NewMemoryWithClock(func() time.Time { return now })

	calls := 0
	fn := func() error { calls++; return nil }

	if err := c.Once("warm", time.Minute, fn); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := c.Once("warm", time.Minute, fn); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if calls != 1 {
		t.Fatalf("ожидали один вызов, получили %d", calls)
	}

	now = now.Add(2 * time.Minute)
	if err := c.Once("warm", time.Minute, fn); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if calls != 2 {
		t.Fatalf("ожидали повторный вызов после TTL, получили %d", calls)
	}
}

func TestMemoryCacheOnceReleasesOnError(t *testing.T) {
	c := NewMemory()
	boom := errors.New("boom")
	if err := c.Once("warm", time.Minute, func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("ожидали ошибку из функции, получили %v", err)
	}
	calls := 0
	if err := c.Once("warm", time.Minute, func() error { calls++; return nil }); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if calls != 1 {
		t.Fatal("ожидали, что ключ освободился после ошибки")
	}
}
