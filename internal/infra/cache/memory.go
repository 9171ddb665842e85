package cache

import (
	"errors"
	"sync"
	"time"
)

// ErrMiss возвращается, когда ключ отсутствует или запись устарела.
var ErrMiss = errors.New("cache: miss")

type entry struct {
	data     []byte
	storedAt time.Time
	ttl      time.Duration
}

// MemoryCache — потокобезопасный TTL-кэш в памяти процесса.
// Устаревание проверяется лениво при чтении; записи не вытесняются,
// следующая запись по тому же ключу просто перезатирает старую.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory создаёт кэш.
func NewMemory() *MemoryCache {
	return &MemoryCache{entries: make(map[string]entry), now: time.Now}
}

// NewMemoryWithClock создаёт кэш с подменяемыми часами для тестов.
func NewMemoryWithClock(now func() time.Time) *MemoryCache {
	return &MemoryCache{entries: make(map[string]entry), now: now}
}

// Once выполняет функцию, если по ключу ещё нет свежей записи.
func (c *MemoryCache) Once(key string, ttl time.Duration, fn func() error) error {
	c.mu.Lock()
	e, ok := c.entries[key]
	fresh := ok && c.now().Sub(e.storedAt) < e.ttl
	if !fresh {
		c.entries[key] = entry{data: []byte("1"), storedAt: c.now(), ttl: ttl}
	}
	c.mu.Unlock()
	if fresh {
		return nil
	}
	if err := fn(); err != nil {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return err
	}
	return nil
}

// Set задаёт значение.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = entry{data: value, storedAt: c.now(), ttl: ttl}
	c.mu.Unlock()
	return nil
}

// Get возвращает значение либо ErrMiss, если запись отсутствует или устарела.
func (c *MemoryCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if c.now().Sub(e.storedAt) >= e.ttl {
		return nil, ErrMiss
	}
	return e.data, nil
}
