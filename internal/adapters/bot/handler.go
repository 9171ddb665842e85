package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"fb-newsbot/internal/adapters/capi"
	"fb-newsbot/internal/adapters/facebook"
	"fb-newsbot/internal/domain"
	"fb-newsbot/internal/infra/metrics"
	"fb-newsbot/internal/usecase/intent"
	"fb-newsbot/internal/usecase/schedule"
	"fb-newsbot/internal/usecase/topics"
)

const campaignCode = "CMP=fb_newsbot"

// Sender отправляет исходящие сообщения платформы.
type Sender interface {
	Send(ctx context.Context, userID string, msg facebook.Message) error
	SendText(ctx context.Context, userID, text string) error
}

// ContentClient отдаёт подборки статей.
type ContentClient interface {
	GetHeadlines(ctx context.Context, front string, offset int, topic string) ([]domain.Article, error)
	GetMostViewed(ctx context.Context, front string, offset int, topic string) ([]domain.Article, error)
}

// Handler обслуживает вебхук бота: разбирает входящие сообщения,
// превращает их в события диалога и отвечает пользователю.
type Handler struct {
	sender     Sender
	content    ContentClient
	users      domain.UserRepo
	profiles   domain.ProfileAPI
	scheduleUC *schedule.Service
	resolver   *intent.Resolver
	catalog    *topics.Catalog
	messages   *Messages
	log        zerolog.Logger
}

// NewHandler создаёт обработчик.
func NewHandler(sender Sender, content ContentClient, users domain.UserRepo, profiles domain.ProfileAPI, scheduleUC *schedule.Service, resolver *intent.Resolver, catalog *topics.Catalog, messages *Messages, log zerolog.Logger) *Handler {
	return &Handler{
		sender:     sender,
		content:    content,
		users:      users,
		profiles:   profiles,
		scheduleUC: scheduleUC,
		resolver:   resolver,
		catalog:    catalog,
		messages:   messages,
		log:        log,
	}
}

// WebhookRequest — тело POST-вебхука Messenger.
type WebhookRequest struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry — пачка событий одной страницы.
type Entry struct {
	Messaging []MessagingEvent `json:"messaging"`
}

// MessagingEvent — одно входящее событие: сообщение или postback.
type MessagingEvent struct {
	Sender   Party            `json:"sender"`
	Message  *IncomingMessage `json:"message,omitempty"`
	Postback *Postback        `json:"postback,omitempty"`
}

type Party struct {
	ID string `json:"id"`
}

type IncomingMessage struct {
	Text       string         `json:"text"`
	QuickReply *QuickReplyRef `json:"quick_reply,omitempty"`
}

type QuickReplyRef struct {
	Payload string `json:"payload"`
}

type Postback struct {
	Payload string `json:"payload"`
}

// HandleWebhook последовательно обрабатывает все события запроса.
// Ошибка одного события не прерывает остальные.
func (h *Handler) HandleWebhook(ctx context.Context, req WebhookRequest) {
	for _, entry := range req.Entry {
		for _, ev := range entry.Messaging {
			h.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent разбирает одно входящее событие и диспетчеризует его.
func (h *Handler) HandleEvent(ctx context.Context, ev MessagingEvent) {
	if ev.Sender.ID == "" {
		return
	}
	event, ok := h.resolveEvent(ev)
	if !ok {
		return
	}

	user, found, err := h.users.Get(ctx, ev.Sender.ID)
	if err != nil {
		h.log.Error().Err(err).Str("user", ev.Sender.ID).Msg("не удалось получить пользователя")
		return
	}
	if !found {
		// Любое первое обращение проходит онбординг, что бы ни прислали.
		h.Dispatch(ctx, domain.User{ID: ev.Sender.ID}, domain.Event{Name: domain.EventStart})
		return
	}
	if event.Name == domain.EventStart {
		// Повторный Get Started от существующего пользователя.
		event = domain.Event{Name: domain.EventGreeting}
	}
	h.Dispatch(ctx, user, event)
}

func (h *Handler) resolveEvent(ev MessagingEvent) (domain.Event, bool) {
	switch {
	case ev.Postback != nil:
		return h.resolver.ResolvePayload([]byte(ev.Postback.Payload)), true
	case ev.Message != nil && ev.Message.QuickReply != nil:
		return h.resolver.ResolvePayload([]byte(ev.Message.QuickReply.Payload)), true
	case ev.Message != nil && strings.TrimSpace(ev.Message.Text) != "":
		return h.resolver.Resolve(ev.Message.Text), true
	default:
		return domain.Event{}, false
	}
}

// Dispatch выполняет обработчик события. Switch исчерпывающий:
// новое событие без ветки не скомпилируется незамеченным ревью.
func (h *Handler) Dispatch(ctx context.Context, user domain.User, event domain.Event) {
	metrics.WebhookEventsTotal.WithLabelValues(string(event.Name)).Inc()

	var err error
	switch event.Name {
	case domain.EventStart:
		err = h.handleStart(ctx, user.ID)
	case domain.EventGreeting:
		err = h.handleGreeting(ctx, user)
	case domain.EventHelp:
		err = h.sendMenu(ctx, user, h.messages.Help())
	case domain.EventMenu:
		err = h.sendMenu(ctx, user, h.messages.Menu())
	case domain.EventSubscribeYes:
		err = h.handleSubscribeYes(ctx, user)
	case domain.EventSubscribeNo:
		err = h.sendMenu(ctx, user, h.messages.SubscribeNo())
	case domain.EventSubscribe:
		err = h.handleSubscribe(ctx, user, event.Payload)
	case domain.EventManageSubscription:
		err = h.handleManageSubscription(ctx, user)
	case domain.EventChangeFrontMenu:
		err = h.handleChangeFrontMenu(ctx, user)
	case domain.EventChangeFront:
		err = h.handleChangeFront(ctx, user, event.Payload)
	case domain.EventUnsubscribe:
		err = h.handleUnsubscribe(ctx, user)
	case domain.EventMorningBriefing:
		err = h.MorningBriefing(ctx, user)
	case domain.EventHeadlines:
		err = h.sendArticles(ctx, user, domain.EventHeadlines, event.Payload)
	case domain.EventMostPopular:
		err = h.sendArticles(ctx, user, domain.EventMostPopular, event.Payload)
	case domain.EventShare:
		err = h.sender.SendText(ctx, user.ID, event.Payload.Title+" - "+event.Payload.URL)
	case domain.EventSupport:
		err = h.sender.SendText(ctx, user.ID, h.messages.Support())
	case domain.EventUnknown:
		err = h.handleUnknown(ctx, user)
	}
	if err != nil {
		h.log.Error().Err(err).Str("user", user.ID).Str("event", string(event.Name)).Msg("не удалось обработать событие")
	}
}

func (h *Handler) handleStart(ctx context.Context, id string) error {
	profile, err := h.profiles.GetProfile(ctx, id)
	if err != nil {
		return fmt.Errorf("профиль пользователя: %w", err)
	}
	user := domain.User{
		ID:                  id,
		Front:               topics.LocaleToFront(profile.Locale),
		NotificationTime:    domain.NotSubscribed,
		NotificationTimeUTC: domain.NotSubscribed,
	}
	if err := h.users.Add(ctx, user); err != nil {
		return fmt.Errorf("создание пользователя: %w", err)
	}
	return h.sendSubscribeQuestion(ctx, id, h.messages.Greeting()+" "+profile.FirstName+"! "+h.messages.Welcome())
}

func (h *Handler) handleGreeting(ctx context.Context, user domain.User) error {
	profile, err := h.profiles.GetProfile(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("профиль пользователя: %w", err)
	}
	return h.sendMenu(ctx, user, h.messages.Greeting()+" "+profile.FirstName+". "+h.messages.Menu())
}

func (h *Handler) handleSubscribeYes(ctx context.Context, user domain.User) error {
	return h.sender.Send(ctx, user.ID, facebook.ButtonTemplate(
		h.messages.SubscribeYes(),
		facebook.PostbackButton("6am", domain.Payload{Event: string(domain.EventSubscribe), Time: 6}),
		facebook.PostbackButton("7am", domain.Payload{Event: string(domain.EventSubscribe), Time: 7}),
		facebook.PostbackButton("8am", domain.Payload{Event: string(domain.EventSubscribe), Time: 8}),
	))
}

func (h *Handler) handleSubscribe(ctx context.Context, user domain.User, payload domain.Payload) error {
	local, _, err := h.scheduleUC.Subscribe(ctx, user.ID, payload.Time)
	if err != nil {
		return err
	}
	user.NotificationTime = local
	return h.sendMenu(ctx, user, h.messages.Subscribed())
}

func (h *Handler) handleManageSubscription(ctx context.Context, user domain.User) error {
	if !user.Subscribed() {
		return h.sendSubscribeQuestion(ctx, user.ID, h.messages.SubscribeQuestion())
	}
	text := fmt.Sprintf(
		"Your edition is currently set to %s and your morning briefing time is %s.\n\nWhat would you like to change?",
		topics.FrontTitle(user.Front), user.NotificationTime,
	)
	return h.sender.Send(ctx, user.ID, facebook.ButtonTemplate(
		text,
		facebook.PostbackButton("Change time", domain.Payload{Event: string(domain.EventSubscribeYes)}),
		facebook.PostbackButton("Change edition", domain.Payload{Event: string(domain.EventChangeFrontMenu)}),
		facebook.PostbackButton("Unsubscribe", domain.Payload{Event: string(domain.EventUnsubscribe)}),
	))
}

func (h *Handler) handleChangeFrontMenu(ctx context.Context, user domain.User) error {
	elements := make([]facebook.Element, 0, len(topics.Fronts))
	for _, front := range topics.Fronts {
		elements = append(elements, facebook.Element{
			Title: topics.FrontTitle(front) + " edition",
			Buttons: []facebook.Button{
				facebook.PostbackButton("Set edition", domain.Payload{Event: string(domain.EventChangeFront), Front: front}),
			},
		})
	}
	return h.sender.Send(ctx, user.ID, facebook.GenericTemplate(elements...))
}

func (h *Handler) handleChangeFront(ctx context.Context, user domain.User, payload domain.Payload) error {
	if err := h.scheduleUC.ChangeFront(ctx, user.ID, payload.Front); err != nil {
		return err
	}
	return h.sender.SendText(ctx, user.ID, "Your edition has been updated to "+topics.FrontTitle(payload.Front))
}

func (h *Handler) handleUnsubscribe(ctx context.Context, user domain.User) error {
	if err := h.scheduleUC.Unsubscribe(ctx, user.ID); err != nil {
		return err
	}
	return h.sender.SendText(ctx, user.ID, h.messages.Unsubscribed())
}

// MorningBriefing отправляет утреннюю рассылку: приветствие и свежие
// заголовки издания пользователя. Вызывается и из диалога, и воркером доставки.
func (h *Handler) MorningBriefing(ctx context.Context, user domain.User) error {
	if err := h.sender.SendText(ctx, user.ID, h.messages.MorningBriefing()); err != nil {
		return err
	}
	return h.sendArticles(ctx, user, domain.EventHeadlines, domain.Payload{})
}

func (h *Handler) handleUnknown(ctx context.Context, user domain.User) error {
	return h.sender.Send(ctx, user.ID, facebook.ButtonTemplate(
		h.messages.Unknown(),
		facebook.PostbackButton(h.messages.UnknownPrompt(), domain.Payload{Event: string(domain.EventHelp)}),
	))
}

func (h *Handler) sendSubscribeQuestion(ctx context.Context, id, text string) error {
	return h.sender.Send(ctx, id, facebook.ButtonTemplate(
		text,
		facebook.PostbackButton("Yes please", domain.Payload{Event: string(domain.EventSubscribeYes)}),
		facebook.PostbackButton("No thanks", domain.Payload{Event: string(domain.EventSubscribeNo)}),
	))
}

func (h *Handler) sendMenu(ctx context.Context, user domain.User, text string) error {
	subButton := facebook.PostbackButton("Subscribe", domain.Payload{Event: string(domain.EventSubscribeYes)})
	if user.Subscribed() {
		subButton = facebook.PostbackButton("Manage subscription", domain.Payload{Event: string(domain.EventManageSubscription)})
	}
	return h.sender.Send(ctx, user.ID, facebook.ButtonTemplate(
		text,
		facebook.PostbackButton("Headlines", domain.Payload{Event: string(domain.EventHeadlines)}),
		facebook.PostbackButton("Most popular", domain.Payload{Event: string(domain.EventMostPopular)}),
		subButton,
	))
}

func (h *Handler) sendArticles(ctx context.Context, user domain.User, name domain.EventName, payload domain.Payload) error {
	fetch := h.content.GetHeadlines
	if name == domain.EventMostPopular {
		fetch = h.content.GetMostViewed
	}
	articles, err := fetch(ctx, user.Front, payload.Page, payload.Topic)
	if errors.Is(err, capi.ErrUnresolvedTopic) {
		return h.handleUnknown(ctx, user)
	}
	if err != nil {
		return fmt.Errorf("подборка статей: %w", err)
	}
	if len(articles) == 0 {
		return h.sender.SendText(ctx, user.ID, h.messages.NoMoreStories())
	}

	elements := make([]facebook.Element, 0, len(articles))
	for _, a := range articles {
		elements = append(elements, facebook.Element{
			Title:    a.Title,
			Subtitle: a.Standfirst,
			ImageURL: a.ImageURL,
			ItemURL:  a.URL + "?" + campaignCode,
			Buttons: []facebook.Button{
				facebook.PostbackButton("Share", domain.Payload{
					Event: string(domain.EventShare),
					Title: a.Title,
					URL:   a.URL + "?" + campaignCode + "_share",
				}),
			},
		})
	}

	msg := facebook.GenericTemplate(elements...)
	msg.QuickReplies = append(msg.QuickReplies, facebook.TextQuickReply("More stories", domain.Payload{
		Event: string(name),
		Page:  payload.Page + capi.PageSize,
		Topic: payload.Topic,
	}))
	for _, topic := range h.catalog.Suggestions(user.Front, payload.Topic) {
		msg.QuickReplies = append(msg.QuickReplies, facebook.TextQuickReply(titleCase(topic), domain.Payload{
			Event: string(name),
			Topic: topic,
		}))
	}
	return h.sender.Send(ctx, user.ID, msg)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
