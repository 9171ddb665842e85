package topics

import "testing"

func TestResolveAliases(t *testing.T) {
	c := MustLoad()
	football, ok := c.Resolve("football", "uk")
	if !ok {
		t.Fatal("ожидали найти football")
	}
	soccer, ok := c.Resolve("soccer", "uk")
	if !ok {
		t.Fatal("ожидали найти soccer")
	}
	if football != soccer {
		t.Fatalf("ожидали одинаковые параметры, получили %+v и %+v", football, soccer)
	}
	if football.Path != "football" {
		t.Fatalf("ожидали путь football, получили %s", football.Path)
	}
}

func TestResolveCaseInsensitive(t *testing.T) {
	c := MustLoad()
	upper, ok := c.Resolve("  Football ", "uk")
	if !ok {
		t.Fatal("ожидали найти тему независимо от регистра")
	}
	lower, _ := c.Resolve("football", "uk")
	if upper != lower {
		t.Fatal("регистр не должен влиять на результат")
	}
}

func TestResolveEditionFallback(t *testing.T) {
	c := MustLoad()
	// У "us sport" нет переопределения для uk — должна вернуться ветка default.
	props, ok := c.Resolve("us sport", "uk")
	if !ok {
		t.Fatal("ожидали найти us sport")
	}
	def, _ := c.Resolve("us-sport", "")
	if props != def {
		t.Fatalf("ожидали ветку default, получили %+v", props)
	}
}

func TestResolveEditionOverride(t *testing.T) {
	c := MustLoad()
	us, ok := c.Resolve("politics", "us")
	if !ok {
		t.Fatal("ожидали найти politics")
	}
	if us.Path != "us-news/us-politics" {
		t.Fatalf("ожидали переопределение для us, получили %s", us.Path)
	}
	def, _ := c.Resolve("politics", "international")
	if def.Path != "politics" {
		t.Fatalf("ожидали ветку default, получили %s", def.Path)
	}
}

func TestResolveFront(t *testing.T) {
	c := MustLoad()
	props, ok := c.Resolve("uk", "uk")
	if !ok {
		t.Fatal("издание должно резолвиться")
	}
	if props.Path != "uk" || !props.EditorsPicks {
		t.Fatalf("неожиданные параметры издания: %+v", props)
	}
}

func TestResolveUnknown(t *testing.T) {
	c := MustLoad()
	if _, ok := c.Resolve("astrology", "uk"); ok {
		t.Fatal("неизвестная тема не должна резолвиться")
	}
}

func TestIsTopic(t *testing.T) {
	c := MustLoad()
	if !c.IsTopic("tech") {
		t.Fatal("tech — тема")
	}
	if c.IsTopic("uk") {
		t.Fatal("издание не считается темой")
	}
	if c.IsTopic("weather") {
		t.Fatal("weather не в каталоге")
	}
}

func TestFindTopic(t *testing.T) {
	c := MustLoad()
	topic, ok := c.FindTopic("give me the latest football headlines")
	if !ok || topic != "football" {
		t.Fatalf("ожидали football, получили %q", topic)
	}
	topic, ok = c.FindTopic("us sport scores please")
	if !ok || topic != "us-sport" {
		t.Fatalf("ожидали us-sport, получили %q", topic)
	}
	if _, ok := c.FindTopic("what a lovely day"); ok {
		t.Fatal("не ожидали найти тему")
	}
}

func TestSuggestionsExcludeCurrent(t *testing.T) {
	c := MustLoad()
	for _, topic := range c.Suggestions("uk", "football") {
		if topic == "football" {
			t.Fatal("текущая тема не должна предлагаться")
		}
	}
	if len(c.Suggestions("uk", "")) == 0 {
		t.Fatal("ожидали непустой список подсказок")
	}
	if len(c.Suggestions("unknown-front", "")) == 0 {
		t.Fatal("для неизвестного издания ожидали подсказки international")
	}
}

func TestFrontTitle(t *testing.T) {
	cases := map[string]string{
		"uk":            "UK",
		"us":            "US",
		"au":            "Australia",
		"international": "International",
	}
	for front, expected := range cases {
		if got := FrontTitle(front); got != expected {
			t.Fatalf("ожидали %s, получили %s", expected, got)
		}
	}
}

func TestLocaleToFront(t *testing.T) {
	cases := map[string]string{
		"en_GB": "uk",
		"en_US": "us",
		"en_UD": "au",
		"fr_FR": "international",
		"":      "international",
	}
	for locale, expected := range cases {
		if got := LocaleToFront(locale); got != expected {
			t.Fatalf("локаль %q: ожидали %s, получили %s", locale, expected, got)
		}
	}
}
