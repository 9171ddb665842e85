package facebook

import "fb-newsbot/internal/domain"

// Message — исходящее сообщение Send API: либо текст, либо шаблон-вложение,
// с необязательными quick reply.
type Message struct {
	Text         string       `json:"text,omitempty"`
	Attachment   *Attachment  `json:"attachment,omitempty"`
	QuickReplies []QuickReply `json:"quick_replies,omitempty"`
}

// Attachment — шаблонное вложение.
type Attachment struct {
	Type    string            `json:"type"`
	Payload AttachmentPayload `json:"payload"`
}

// AttachmentPayload — содержимое шаблона кнопок или карусели.
type AttachmentPayload struct {
	TemplateType string    `json:"template_type"`
	Text         string    `json:"text,omitempty"`
	Buttons      []Button  `json:"buttons,omitempty"`
	Elements     []Element `json:"elements,omitempty"`
}

// Button — кнопка postback или web_url.
type Button struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Payload string `json:"payload,omitempty"`
	URL     string `json:"url,omitempty"`
}

// QuickReply — подсказка-ответ под сообщением.
type QuickReply struct {
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	Payload     string `json:"payload"`
}

// Element — карточка в карусели.
type Element struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	ItemURL  string   `json:"item_url,omitempty"`
	Buttons  []Button `json:"buttons,omitempty"`
}

// TextMessage строит простое текстовое сообщение.
func TextMessage(text string) Message {
	return Message{Text: text}
}

// ButtonTemplate строит сообщение с текстом и кнопками.
func ButtonTemplate(text string, buttons ...Button) Message {
	return Message{Attachment: &Attachment{
		Type: "template",
		Payload: AttachmentPayload{
			TemplateType: "button",
			Text:         text,
			Buttons:      buttons,
		},
	}}
}

// GenericTemplate строит карусель карточек.
func GenericTemplate(elements ...Element) Message {
	return Message{Attachment: &Attachment{
		Type: "template",
		Payload: AttachmentPayload{
			TemplateType: "generic",
			Elements:     elements,
		},
	}}
}

// PostbackButton строит кнопку со структурированной нагрузкой.
func PostbackButton(title string, payload domain.Payload) Button {
	return Button{Type: "postback", Title: title, Payload: payload.Encode()}
}

// URLButton строит кнопку-ссылку.
func URLButton(title, url string) Button {
	return Button{Type: "web_url", Title: title, URL: url}
}

// TextQuickReply строит quick reply со структурированной нагрузкой.
func TextQuickReply(title string, payload domain.Payload) QuickReply {
	return QuickReply{ContentType: "text", Title: title, Payload: payload.Encode()}
}
