package topics

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Props — параметры запроса к контентному API для темы или издания.
type Props struct {
	Path         string `yaml:"path"`
	EditorsPicks bool   `yaml:"editorsPicks"`
	MostViewed   bool   `yaml:"mostViewed"`
	Tone         string `yaml:"tone"`
}

type entry struct {
	Aliases  []string         `yaml:"aliases"`
	Front    bool             `yaml:"front"`
	Editions map[string]Props `yaml:"editions"`
}

type catalogFile struct {
	Entries     map[string]entry    `yaml:"entries"`
	Suggestions map[string][]string `yaml:"suggestions"`
}

// Catalog — справочник тем и изданий.
type Catalog struct {
	entries     map[string]entry
	aliases     map[string]string
	suggestions map[string][]string
}

// Fronts — закрытый набор изданий в фиксированном порядке.
var Fronts = []string{"uk", "us", "au", "international"}

// Load разбирает встроенную таблицу.
func Load() (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(catalogYAML, &file); err != nil {
		return nil, fmt.Errorf("разбор каталога тем: %w", err)
	}
	c := &Catalog{
		entries:     file.Entries,
		aliases:     make(map[string]string),
		suggestions: file.Suggestions,
	}
	for name, e := range file.Entries {
		if _, ok := e.Editions["default"]; !ok {
			return nil, fmt.Errorf("тема %q не имеет ветки default", name)
		}
		for _, alias := range e.Aliases {
			c.aliases[strings.ToLower(alias)] = name
		}
	}
	return c, nil
}

// MustLoad паникует, если встроенная таблица не разбирается.
// Допустимо только на этапе старта процесса.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Canonical приводит имя темы к каноничному виду; пустая строка, если тема неизвестна.
func (c *Catalog) Canonical(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := c.aliases[key]; ok {
		return canonical
	}
	if _, ok := c.entries[key]; ok {
		return key
	}
	return ""
}

// Resolve возвращает параметры темы либо издания для заданного издания,
// с падением на ветку default, если переопределения нет.
func (c *Catalog) Resolve(name, front string) (Props, bool) {
	canonical := c.Canonical(name)
	if canonical == "" {
		return Props{}, false
	}
	e := c.entries[canonical]
	if props, ok := e.Editions[strings.ToLower(front)]; ok {
		return props, true
	}
	return e.Editions["default"], true
}

// IsTopic сообщает, резолвится ли слово в тему (издания не считаются темами).
func (c *Catalog) IsTopic(word string) bool {
	canonical := c.Canonical(word)
	if canonical == "" {
		return false
	}
	return !c.entries[canonical].Front
}

// FindTopic ищет в свободном тексте упоминание темы: сначала пары соседних
// слов (для алиасов вроде "us sport"), затем одиночные слова.
func (c *Catalog) FindTopic(text string) (string, bool) {
	words := strings.Fields(strings.ToLower(text))
	for i := 0; i+1 < len(words); i++ {
		bigram := words[i] + " " + words[i+1]
		if c.IsTopic(bigram) {
			return c.Canonical(bigram), true
		}
	}
	for _, word := range words {
		trimmed := strings.Trim(word, ".,!?;:")
		if c.IsTopic(trimmed) {
			return c.Canonical(trimmed), true
		}
	}
	return "", false
}

// Suggestions возвращает короткий список тем издания без текущей темы.
func (c *Catalog) Suggestions(front, exclude string) []string {
	list, ok := c.suggestions[strings.ToLower(front)]
	if !ok {
		list = c.suggestions["international"]
	}
	excluded := c.Canonical(exclude)
	out := make([]string, 0, len(list))
	for _, topic := range list {
		if topic == excluded {
			continue
		}
		out = append(out, topic)
	}
	return out
}

// FrontTitle возвращает человекочитаемое название издания.
func FrontTitle(front string) string {
	switch strings.ToLower(front) {
	case "au":
		return "Australia"
	case "international":
		return "International"
	default:
		return strings.ToUpper(front)
	}
}

// LocaleToFront отображает локаль Messenger на издание.
// http://fbdevwiki.com/wiki/Locales
func LocaleToFront(locale string) string {
	switch locale {
	case "en_GB":
		return "uk"
	case "en_US":
		return "us"
	case "en_UD":
		return "au"
	default:
		return "international"
	}
}
