package domain

import "time"

// NotSubscribed — значение-маркер для времени рассылки у неподписанных пользователей.
const NotSubscribed = "-"

// User описывает пользователя Messenger в системе.
// Поля времени хранятся строками "HH:mm"; обе либо заданы, либо равны NotSubscribed.
type User struct {
	ID                  string
	Front               string
	NotificationTime    string
	NotificationTimeUTC string
	OffsetHours         float64
}

// Subscribed сообщает, подписан ли пользователь на утреннюю рассылку.
func (u User) Subscribed() bool {
	return u.NotificationTime != NotSubscribed
}

// Profile содержит данные пользователя из Graph API.
// Timezone равен nil, если платформа не вернула смещение.
type Profile struct {
	FirstName string
	Locale    string
	Timezone  *float64
}

// Article представляет одну новость из контентного API.
type Article struct {
	Title      string
	Standfirst string
	URL        string
	ImageURL   string
}

// NotifyJob описывает задачу на доставку утренней рассылки.
type NotifyJob struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Front       string    `json:"front"`
	RequestedAt time.Time `json:"requested_at"`
	Cause       string    `json:"cause"`
}

// Причины постановки задачи рассылки.
const (
	NotifyCauseSchedule    = "schedule"
	NotifyCauseDriftRepair = "drift_repair"
)
