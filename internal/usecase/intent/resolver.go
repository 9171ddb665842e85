package intent

import (
	"encoding/json"
	"regexp"
	"strings"

	"fb-newsbot/internal/domain"
	"fb-newsbot/internal/usecase/topics"
)

// Тексты длиннее этого порога не сканируются на темы и сразу считаются unknown.
const maxScanLength = 200

var (
	greetingRegex  = regexp.MustCompile(`^(hi|hello|ola|hey|salut|ello|whats up)\s*[!?.]*$`)
	helpRegex      = regexp.MustCompile(`^help|^what can you do`)
	subscribeRegex = regexp.MustCompile(`^subscribe|^can you send me a morning briefing`)
)

// Resolver превращает свободный текст или структурированную нагрузку в событие.
type Resolver struct {
	catalog *topics.Catalog
}

// NewResolver создаёт резолвер.
func NewResolver(catalog *topics.Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve применяет упорядоченный набор правил к свободному тексту.
// Правила не взаимоисключающие, поэтому побеждает первое совпавшее:
// "subscribe to headlines" — это subscribe_yes, а не headlines.
func (r *Resolver) Resolve(text string) domain.Event {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case greetingRegex.MatchString(t):
		return domain.Event{Name: domain.EventGreeting}
	case helpRegex.MatchString(t):
		return domain.Event{Name: domain.EventHelp}
	case strings.HasPrefix(t, "menu"):
		return domain.Event{Name: domain.EventMenu}
	case subscribeRegex.MatchString(t):
		return domain.Event{Name: domain.EventSubscribeYes}
	case strings.HasPrefix(t, "unsubscribe"):
		return domain.Event{Name: domain.EventUnsubscribe}
	case t == "support":
		return domain.Event{Name: domain.EventSupport}
	case strings.Contains(t, "headlines"):
		return r.topicEvent(domain.EventHeadlines, t)
	case strings.Contains(t, "popular"):
		return r.topicEvent(domain.EventMostPopular, t)
	}
	if len(t) > maxScanLength {
		return domain.Event{Name: domain.EventUnknown}
	}
	// Упоминание темы без глагола трактуем как неявный запрос заголовков.
	if topic, ok := r.catalog.FindTopic(t); ok {
		return domain.Event{Name: domain.EventHeadlines, Payload: domain.Payload{Topic: topic}}
	}
	return domain.Event{Name: domain.EventUnknown}
}

func (r *Resolver) topicEvent(name domain.EventName, text string) domain.Event {
	ev := domain.Event{Name: name}
	if topic, ok := r.catalog.FindTopic(text); ok {
		ev.Payload.Topic = topic
	}
	return ev
}

// ResolvePayload разбирает нагрузку postback-кнопки или quick reply.
// Неизвестное имя события превращается в unknown, ошибки разбора — тоже.
func (r *Resolver) ResolvePayload(raw []byte) domain.Event {
	var payload domain.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.Event{Name: domain.EventUnknown}
	}
	return domain.Event{Name: domain.ParseEventName(payload.Event), Payload: payload}
}
