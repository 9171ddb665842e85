package facebook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"fb-newsbot/internal/domain"
)

func TestGetProfileTimezoneVariants(t *testing.T) {
	responses := map[string]any{
		"1": map[string]any{"first_name": "Ada", "locale": "en_GB", "timezone": 1.0},
		"2": map[string]any{"first_name": "Ben", "locale": "en_US", "timezone": "-2.5"},
		"3": map[string]any{"first_name": "Eva", "locale": "en_UD"},
		"4": map[string]any{"first_name": "Mal", "locale": "fr_FR", "timezone": "not-a-number"},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[1:]
		_ = json.NewEncoder(w).Encode(responses[id])
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token", 100, zerolog.Nop())
	defer client.Close()

	check := func(id string, expected *float64, locale string) {
		t.Helper()
		profile, err := client.GetProfile(context.Background(), id)
		if err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
		if profile.Locale != locale {
			t.Fatalf("ожидали локаль %s, получили %s", locale, profile.Locale)
		}
		if expected == nil {
			if profile.Timezone != nil {
				t.Fatalf("ожидали отсутствие смещения, получили %v", *profile.Timezone)
			}
			return
		}
		if profile.Timezone == nil || *profile.Timezone != *expected {
			t.Fatalf("ожидали смещение %v, получили %v", *expected, profile.Timezone)
		}
	}

	one := 1.0
	minusTwoHalf := -2.5
	check("1", &one, "en_GB")
	check("2", &minusTwoHalf, "en_US")
	check("3", nil, "en_UD")
	check("4", nil, "fr_FR")
}

func TestSendDeliversPayload(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token", 100, zerolog.Nop())
	defer client.Close()

	msg := ButtonTemplate("How can I help?",
		PostbackButton("Headlines", domain.Payload{Event: "headlines"}),
	)
	if err := client.Send(context.Background(), "42", msg); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.Recipient.ID != "42" {
		t.Fatalf("ожидали получателя 42, получили %s", got.Recipient.ID)
	}
	if got.Message.Attachment == nil || got.Message.Attachment.Payload.TemplateType != "button" {
		t.Fatalf("ожидали шаблон кнопок, получили %+v", got.Message)
	}
}

func TestSendGraphError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"(#100) Invalid user","code":100}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token", 100, zerolog.Nop())
	defer client.Close()

	if err := client.SendText(context.Background(), "42", "hi"); err == nil {
		t.Fatal("ожидали ошибку из тела ответа")
	}
}
