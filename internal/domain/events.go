package domain

import "encoding/json"

// EventName — каноничное имя события диалога. Набор закрыт:
// диспетчеризация идёт через исчерпывающий switch, а не по строковому ключу.
type EventName string

const (
	EventStart              EventName = "start"
	EventGreeting           EventName = "greeting"
	EventHelp               EventName = "help"
	EventMenu               EventName = "menu"
	EventSubscribeYes       EventName = "subscribe_yes"
	EventSubscribeNo        EventName = "subscribe_no"
	EventSubscribe          EventName = "subscribe"
	EventManageSubscription EventName = "manage_subscription"
	EventChangeFrontMenu    EventName = "change_front_menu"
	EventChangeFront        EventName = "change_front"
	EventUnsubscribe        EventName = "unsubscribe"
	EventMorningBriefing    EventName = "morning_briefing"
	EventHeadlines          EventName = "headlines"
	EventMostPopular        EventName = "most_popular"
	EventShare              EventName = "share"
	EventSupport            EventName = "support"
	EventUnknown            EventName = "unknown"
)

var knownEvents = map[EventName]struct{}{
	EventStart:              {},
	EventGreeting:           {},
	EventHelp:               {},
	EventMenu:               {},
	EventSubscribeYes:       {},
	EventSubscribeNo:        {},
	EventSubscribe:          {},
	EventManageSubscription: {},
	EventChangeFrontMenu:    {},
	EventChangeFront:        {},
	EventUnsubscribe:        {},
	EventMorningBriefing:    {},
	EventHeadlines:          {},
	EventMostPopular:        {},
	EventShare:              {},
	EventSupport:            {},
	EventUnknown:            {},
}

// ParseEventName валидирует имя события; неизвестные имена превращаются в unknown.
func ParseEventName(raw string) EventName {
	name := EventName(raw)
	if _, ok := knownEvents[name]; ok {
		return name
	}
	return EventUnknown
}

// Payload — структурированная нагрузка postback-кнопки или quick reply.
type Payload struct {
	Event string `json:"event"`
	Topic string `json:"topic,omitempty"`
	Page  int    `json:"page,omitempty"`
	Time  int    `json:"time,omitempty"`
	Front string `json:"front,omitempty"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Encode сериализует нагрузку для вкладывания в кнопку.
func (p Payload) Encode() string {
	data, err := json.Marshal(p)
	if err != nil {
		return `{"event":"unknown"}`
	}
	return string(data)
}

// Event — результат разбора входящего сообщения: имя плюс нагрузка.
type Event struct {
	Name    EventName
	Payload Payload
}
