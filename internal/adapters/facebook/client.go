package facebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fb-newsbot/internal/domain"
	"fb-newsbot/internal/infra/metrics"
)

// Client ходит в Graph API: профили пользователей и Send API.
// Исходящие сообщения проходят через лимитер с очередью ожидания:
// тикер выдаёт не больше rps разрешений в секунду, лишние отправители
// просто ждут своего тика, ничего не отбрасывается.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	limiter     *time.Ticker
	log         zerolog.Logger
}

// NewClient создаёт клиент с ограничением исходящих запросов в секунду.
func NewClient(baseURL, accessToken string, rps int, log zerolog.Logger) *Client {
	if rps <= 0 {
		rps = 100
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		limiter:     time.NewTicker(time.Second / time.Duration(rps)),
		log:         log,
	}
}

// Close останавливает лимитер.
func (c *Client) Close() {
	c.limiter.Stop()
}

type sendRequest struct {
	Recipient recipient `json:"recipient"`
	Message   Message   `json:"message"`
}

type recipient struct {
	ID string `json:"id"`
}

type sendResponse struct {
	Error *graphError `json:"error"`
}

type graphError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Send отправляет структурированное сообщение пользователю.
func (c *Client) Send(ctx context.Context, userID string, msg Message) error {
	select {
	case <-c.limiter.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	body, err := json.Marshal(sendRequest{Recipient: recipient{ID: userID}, Message: msg})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	endpoint := c.baseURL + "/me/messages?access_token=" + url.QueryEscape(c.accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveNetworkRequest("facebook", "send_message", userID, start, err)
	if err != nil {
		metrics.SendErrors.Inc()
		return fmt.Errorf("отправка сообщения: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		metrics.SendErrors.Inc()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("send api статус %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	var decoded sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err == nil && decoded.Error != nil {
		metrics.SendErrors.Inc()
		return fmt.Errorf("send api ошибка %d: %s", decoded.Error.Code, decoded.Error.Message)
	}
	return nil
}

// SendText отправляет простое текстовое сообщение.
func (c *Client) SendText(ctx context.Context, userID, text string) error {
	return c.Send(ctx, userID, TextMessage(text))
}

type profileResponse struct {
	FirstName string      `json:"first_name"`
	Locale    string      `json:"locale"`
	Timezone  interface{} `json:"timezone"`
	Error     *graphError `json:"error"`
}

// GetProfile возвращает профиль пользователя Messenger.
func (c *Client) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(userID) + "?access_token=" + url.QueryEscape(c.accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("create request: %w", err)
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveNetworkRequest("facebook", "get_profile", userID, start, err)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("запрос профиля: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Profile{}, fmt.Errorf("graph api статус %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	var decoded profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Profile{}, fmt.Errorf("разбор профиля: %w", err)
	}
	if decoded.Error != nil {
		return domain.Profile{}, fmt.Errorf("graph api ошибка %d: %s", decoded.Error.Code, decoded.Error.Message)
	}

	profile := domain.Profile{FirstName: decoded.FirstName, Locale: decoded.Locale}
	profile.Timezone = c.parseTimezone(userID, decoded.Timezone)
	return profile, nil
}

// parseTimezone терпимо разбирает смещение: платформа может вернуть число,
// строку или вообще ничего. Мусор логируется и трактуется как отсутствие.
func (c *Client) parseTimezone(userID string, raw interface{}) *float64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case float64:
		return &v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			c.log.Warn().Str("user", userID).Str("timezone", v).Msg("facebook: нечисловое смещение в профиле")
			return nil
		}
		return &parsed
	default:
		c.log.Warn().Str("user", userID).Interface("timezone", raw).Msg("facebook: неожиданный тип смещения")
		return nil
	}
}
