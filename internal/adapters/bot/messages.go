package bot

import (
	"math/rand"
	"sync"
)

// Messages выбирает случайный вариант канонического ответа. Генератор
// передаётся при создании, тесты фиксируют seed и получают детерминизм.
type Messages struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewMessages(seed int64) *Messages {
	return &Messages{rnd: rand.New(rand.NewSource(seed))}
}

func (m *Messages) pick(variants ...string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return variants[m.rnd.Intn(len(variants))]
}

func (m *Messages) Unknown() string {
	return m.pick(
		"I'm sorry I didn't understand that. I'm only good at simple instructions and sending out headlines at the moment",
		"I'm sorry I didn't understand that. My creators are working hard to make me smarter and more useful for you",
		"I'm sorry I didn't understand that. Typing 'menu' at anytime will bring up the options menu",
	)
}

func (m *Messages) UnknownPrompt() string {
	return "What can you do?"
}

func (m *Messages) Help() string {
	return "I'm a prototype chatbot created by the Guardian to keep you up-to-date with the latest news.\n\n" +
		"I can give you the headlines, the most popular stories or deliver a morning briefing to you.\n\n" +
		"How can I help you today?"
}

func (m *Messages) Menu() string {
	return "How can I help?"
}

func (m *Messages) Greeting() string {
	return m.pick("Hi there", "Hello", "Hi", "Hey", "Greetings")
}

func (m *Messages) Welcome() string {
	return "I'm a prototype chatbot created by the Guardian to keep you up-to-date with the latest news.\n\n" +
		"Would you like me to deliver a daily morning briefing to you?"
}

func (m *Messages) SubscribeQuestion() string {
	return "Would you like to subscribe to the daily morning briefing?"
}

func (m *Messages) SubscribeYes() string {
	return "Great. When would you like your morning briefing delivered?"
}

func (m *Messages) SubscribeNo() string {
	return "No problem, maybe later then. You can subscribe to the morning briefing at any time from the menu.\n\n" +
		"Would you like the headlines or the most popular stories?"
}

func (m *Messages) Subscribed() string {
	return "Done. You will start receiving the morning briefing.\n\n" +
		"Remember, you can change your subscription to this at any time from the menu.\n\n" +
		"Would you like to see the headlines or the most popular stories right now?"
}

func (m *Messages) Unsubscribed() string {
	return "Done. You will no longer receive the morning briefing.\n\nYou can re-subscribe at any time from the menu"
}

func (m *Messages) MorningBriefing() string {
	return m.pick(
		"Good morning! Here are the top stories today",
		"Good morning! Your briefing is ready for you",
		"Good morning! Your briefing has arrived",
		"Good morning! Check out this morning's headline stories",
	)
}

func (m *Messages) Support() string {
	return "If something looks broken or you have feedback, email userhelp@theguardian.com and mention the news bot"
}

func (m *Messages) NoMoreStories() string {
	return "That's all the stories I have for now. Check back a little later"
}
