package capi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"fb-newsbot/internal/infra/cache"
	"fb-newsbot/internal/usecase/topics"
)

func testItem(i int) map[string]any {
	return map[string]any{
		"webTitle": fmt.Sprintf("Story %d", i),
		"webUrl":   fmt.Sprintf("https://example.com/story-%d", i),
		"fields":   map[string]any{"standfirst": "<p>Some <b>bold</b> news</p>"},
		"elements": []map[string]any{
			{
				"relation": "main",
				"assets": []map[string]any{
					{"file": "https://img.example.com/small.jpg", "typeData": map[string]any{"width": "500"}},
					{"file": "https://img.example.com/big.jpg", "typeData": map[string]any{"width": "2000"}},
					{"file": "https://img.example.com/wide.jpg", "typeData": map[string]any{"width": "1000"}},
				},
			},
		},
	}
}

type countingServer struct {
	srv   *httptest.Server
	calls atomic.Int64
}

func startServer(t *testing.T) *countingServer {
	t.Helper()
	cs := &countingServer{}
	cs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.calls.Add(1)
		items := make([]map[string]any, 0, 10)
		for i := 0; i < 10; i++ {
			items = append(items, testItem(i))
		}
		body := map[string]any{"response": map[string]any{
			"editorsPicks": items,
			"mostViewed":   items,
			"results":      items,
		}}
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(cs.srv.Close)
	return cs
}

func newClient(srvURL string, c *cache.MemoryCache) *Client {
	return NewClient(srvURL, "test-key", "https://img.example.com/default.jpg", topics.MustLoad(), c, 5*time.Minute, zerolog.Nop())
}

func TestGetHeadlinesUsesCache(t *testing.T) {
	cs := startServer(t)
	now := time.Date(2020, 1, 1, 6, 0, 0, 0, time.UTC)
	mem := cache.NewMemoryWithClock(func() time.Time { return now })
	client := newClient(cs.srv.URL, mem)

	first, err := client.GetHeadlines(context.Background(), "uk", 0, "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(first) != PageSize {
		t.Fatalf("ожидали страницу из %d статей, получили %d", PageSize, len(first))
	}
	if _, err := client.GetHeadlines(context.Background(), "uk", 0, ""); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got := cs.calls.Load(); got != 1 {
		t.Fatalf("в окне свежести ожидали один запрос к API, получили %d", got)
	}

	now = now.Add(6 * time.Minute)
	if _, err := client.GetHeadlines(context.Background(), "uk", 0, ""); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got := cs.calls.Load(); got != 2 {
		t.Fatalf("после истечения окна ожидали второй запрос, получили %d", got)
	}
}

func TestGetHeadlinesPagination(t *testing.T) {
	cs := startServer(t)
	mem := cache.NewMemory()
	client := newClient(cs.srv.URL, mem)

	second, err := client.GetHeadlines(context.Background(), "uk", 5, "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(second) != 5 {
		t.Fatalf("ожидали 5 статей, получили %d", len(second))
	}
	if second[0].Title != "Story 5" {
		t.Fatalf("ожидали срез с индекса 5, получили %s", second[0].Title)
	}
	if got := cs.calls.Load(); got != 1 {
		t.Fatalf("пагинация не должна перечитывать API, получили %d запросов", got)
	}

	empty, err := client.GetHeadlines(context.Background(), "uk", 50, "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("за концом списка ожидали пустую страницу, получили %d", len(empty))
	}
}

func TestArticleMapping(t *testing.T) {
	cs := startServer(t)
	client := newClient(cs.srv.URL, cache.NewMemory())

	articles, err := client.GetHeadlines(context.Background(), "uk", 0, "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	a := articles[0]
	if a.Standfirst != "Some bold news" {
		t.Fatalf("ожидали очищенный standfirst, получили %q", a.Standfirst)
	}
	// Ровно 1000px побеждает сразу, 2000px отбрасывается.
	if a.ImageURL != "https://img.example.com/wide.jpg" {
		t.Fatalf("ожидали ассет шириной 1000, получили %s", a.ImageURL)
	}
}

func TestImageFallbacks(t *testing.T) {
	client := newClient("http://unused", cache.NewMemory())

	item := capiItem{}
	if got := client.imageURL(item); got != "https://img.example.com/default.jpg" {
		t.Fatalf("без элементов ожидали картинку по умолчанию, получили %s", got)
	}

	item.Elements = []capiElement{{Relation: "thumbnail", Assets: []capiAsset{
		{File: "https://img.example.com/a.jpg", TypeData: capiTypeData{Width: "600"}},
		{File: "https://img.example.com/b.jpg", TypeData: capiTypeData{Width: "900"}},
	}}}
	if got := client.imageURL(item); got != "https://img.example.com/b.jpg" {
		t.Fatalf("ожидали самый широкий ассет не шире 1000, получили %s", got)
	}

	item.Elements[0].Assets[0].TypeData.Width = "oops"
	if got := client.imageURL(item); got != "https://img.example.com/b.jpg" {
		t.Fatalf("нечисловая ширина должна игнорироваться, получили %s", got)
	}
}

func TestUnresolvedTopic(t *testing.T) {
	client := newClient("http://unused", cache.NewMemory())
	if _, err := client.GetHeadlines(context.Background(), "uk", 0, "astrology"); !errors.Is(err, ErrUnresolvedTopic) {
		t.Fatalf("ожидали ErrUnresolvedTopic, получили %v", err)
	}
}

func TestWarmFrontOnce(t *testing.T) {
	cs := startServer(t)
	client := newClient(cs.srv.URL, cache.NewMemory())

	if err := client.WarmFront(context.Background(), "uk"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := client.WarmFront(context.Background(), "uk"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got := cs.calls.Load(); got != 1 {
		t.Fatalf("повторный прогрев не должен ходить в API, получили %d", got)
	}
}
