package intent

import (
	"strings"
	"testing"

	"fb-newsbot/internal/domain"
	"fb-newsbot/internal/usecase/topics"
)

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	return NewResolver(topics.MustLoad())
}

func TestResolveTextRules(t *testing.T) {
	r := newResolver(t)
	cases := map[string]domain.EventName{
		"hi":                                  domain.EventGreeting,
		"Hello!":                              domain.EventGreeting,
		"hey?!":                               domain.EventGreeting,
		"whats up":                            domain.EventGreeting,
		"help":                                domain.EventHelp,
		"what can you do for me":              domain.EventHelp,
		"menu please":                         domain.EventMenu,
		"subscribe":                           domain.EventSubscribeYes,
		"can you send me a morning briefing":  domain.EventSubscribeYes,
		"unsubscribe":                         domain.EventUnsubscribe,
		"support":                             domain.EventSupport,
		"show me the headlines":               domain.EventHeadlines,
		"most popular stories":                domain.EventMostPopular,
		"what is the meaning of life":         domain.EventUnknown,
	}
	for text, expected := range cases {
		got := r.Resolve(text)
		if got.Name != expected {
			t.Fatalf("%q: ожидали %s, получили %s", text, expected, got.Name)
		}
	}
}

func TestResolveRuleOrder(t *testing.T) {
	r := newResolver(t)
	// Правило подписки стоит раньше правила заголовков.
	got := r.Resolve("subscribe to headlines")
	if got.Name != domain.EventSubscribeYes {
		t.Fatalf("ожидали subscribe_yes, получили %s", got.Name)
	}
}

func TestResolveIdempotent(t *testing.T) {
	r := newResolver(t)
	first := r.Resolve("football headlines")
	second := r.Resolve("football headlines")
	if first != second {
		t.Fatalf("ожидали одинаковый результат: %+v и %+v", first, second)
	}
}

func TestResolveTopicInHeadlines(t *testing.T) {
	r := newResolver(t)
	got := r.Resolve("football headlines please")
	if got.Name != domain.EventHeadlines || got.Payload.Topic != "football" {
		t.Fatalf("ожидали headlines/football, получили %+v", got)
	}
	got = r.Resolve("popular tech stories")
	if got.Name != domain.EventMostPopular || got.Payload.Topic != "technology" {
		t.Fatalf("ожидали most_popular/technology, получили %+v", got)
	}
	got = r.Resolve("latest headlines")
	if got.Name != domain.EventHeadlines || got.Payload.Topic != "" {
		t.Fatalf("ожидали headlines без темы, получили %+v", got)
	}
}

func TestResolveImplicitTopic(t *testing.T) {
	r := newResolver(t)
	got := r.Resolve("soccer")
	if got.Name != domain.EventHeadlines || got.Payload.Topic != "football" {
		t.Fatalf("ожидали неявный запрос заголовков, получили %+v", got)
	}
}

func TestResolveLongTextIsUnknown(t *testing.T) {
	r := newResolver(t)
	long := strings.Repeat("football ", 40)
	if got := r.Resolve(long); got.Name != domain.EventUnknown {
		t.Fatalf("длинный текст должен давать unknown, получили %s", got.Name)
	}
}

func TestResolvePayload(t *testing.T) {
	r := newResolver(t)
	got := r.ResolvePayload([]byte(`{"event":"headlines","topic":"football","page":5}`))
	if got.Name != domain.EventHeadlines || got.Payload.Topic != "football" || got.Payload.Page != 5 {
		t.Fatalf("неожиданное событие: %+v", got)
	}
	got = r.ResolvePayload([]byte(`{"event":"drop_tables"}`))
	if got.Name != domain.EventUnknown {
		t.Fatalf("неизвестное событие должно давать unknown, получили %s", got.Name)
	}
	got = r.ResolvePayload([]byte(`not json`))
	if got.Name != domain.EventUnknown {
		t.Fatalf("битый JSON должен давать unknown, получили %s", got.Name)
	}
}
