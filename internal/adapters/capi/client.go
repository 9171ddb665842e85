package capi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fb-newsbot/internal/domain"
	"fb-newsbot/internal/infra/metrics"
	"fb-newsbot/internal/usecase/topics"
)

// ErrUnresolvedTopic возвращается, когда каталог не знает тему или издание.
var ErrUnresolvedTopic = errors.New("тема не найдена в каталоге")

const (
	// PageSize — сколько статей уходит в одну карусель.
	PageSize = 5
	// Полный батч, который запрашивается у API и кладётся в кэш целиком.
	batchSize = 25
)

var tagRegex = regexp.MustCompile(`<.*?>`)

type queryMode string

const (
	modeHeadlines  queryMode = "headlines"
	modeMostViewed queryMode = "most_viewed"
)

// Client ходит в контентный API через TTL-кэш.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	apiKey          string
	defaultImageURL string
	catalog         *topics.Catalog
	cache           domain.Cache
	ttl             time.Duration
	log             zerolog.Logger
}

// NewClient создаёт клиент.
func NewClient(baseURL, apiKey, defaultImageURL string, catalog *topics.Catalog, cache domain.Cache, ttl time.Duration, log zerolog.Logger) *Client {
	return &Client{
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		baseURL:         strings.TrimRight(baseURL, "/"),
		apiKey:          apiKey,
		defaultImageURL: defaultImageURL,
		catalog:         catalog,
		cache:           cache,
		ttl:             ttl,
		log:             log,
	}
}

// GetHeadlines возвращает страницу заголовков для издания и необязательной темы.
func (c *Client) GetHeadlines(ctx context.Context, front string, offset int, topic string) ([]domain.Article, error) {
	return c.getArticles(ctx, modeHeadlines, front, offset, topic)
}

// GetMostViewed возвращает страницу самых читаемых статей.
func (c *Client) GetMostViewed(ctx context.Context, front string, offset int, topic string) ([]domain.Article, error) {
	return c.getArticles(ctx, modeMostViewed, front, offset, topic)
}

// WarmFront прогревает кэш издания перед массовой рассылкой. Ключ Once
// защищает от дублирующего прогрева при нескольких экземплярах планировщика.
func (c *Client) WarmFront(ctx context.Context, front string) error {
	return c.cache.Once("warm:"+front, time.Minute, func() error {
		_, err := c.GetHeadlines(ctx, front, 0, "")
		return err
	})
}

func (c *Client) getArticles(ctx context.Context, mode queryMode, front string, offset int, topic string) ([]domain.Article, error) {
	name := topic
	if name == "" {
		name = front
	}
	props, ok := c.catalog.Resolve(name, front)
	if !ok {
		c.log.Warn().Str("topic", name).Str("front", front).Msg("capi: тема не резолвится")
		return nil, ErrUnresolvedTopic
	}

	key := c.queryURL(props, mode)
	if data, err := c.cache.Get(key); err == nil {
		metrics.CacheHits.WithLabelValues("hit").Inc()
		var articles []domain.Article
		if err := json.Unmarshal(data, &articles); err == nil {
			return page(articles, offset), nil
		}
		// Битую запись игнорируем и перечитываем из API.
	}
	metrics.CacheHits.WithLabelValues("miss").Inc()

	articles, err := c.fetch(ctx, key, props, mode)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(articles); err == nil {
		if err := c.cache.Set(key, data, c.ttl); err != nil {
			c.log.Warn().Err(err).Msg("capi: не удалось записать кэш")
		}
	}
	return page(articles, offset), nil
}

// queryURL строит детерминированный адрес запроса; он же служит ключом кэша.
// API-ключ в ключ кэша не входит и добавляется только при обращении к сети.
func (c *Client) queryURL(props topics.Props, mode queryMode) string {
	params := url.Values{}
	params.Set("show-elements", "image")
	params.Set("show-fields", "standfirst,thumbnail")
	switch {
	case mode == modeHeadlines && props.EditorsPicks:
		params.Set("page-size", "0")
		params.Set("show-editors-picks", "true")
	case mode == modeMostViewed && props.MostViewed:
		params.Set("page-size", "0")
		params.Set("show-most-viewed", "true")
	default:
		params.Set("page-size", strconv.Itoa(batchSize))
	}
	if props.Tone != "" {
		params.Set("tag", props.Tone)
	}
	return c.baseURL + "/" + props.Path + "?" + params.Encode()
}

func (c *Client) fetch(ctx context.Context, queryURL string, props topics.Props, mode queryMode) ([]domain.Article, error) {
	requestURL := queryURL + "&api-key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveNetworkRequest("capi", string(mode), props.Path, start, err)
	if err != nil {
		return nil, fmt.Errorf("capi запрос: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("capi статус %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var decoded capiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("capi разбор ответа: %w", err)
	}

	items := decoded.Response.Results
	switch {
	case mode == modeHeadlines && props.EditorsPicks:
		items = decoded.Response.EditorsPicks
	case mode == modeMostViewed && props.MostViewed:
		items = decoded.Response.MostViewed
	}

	articles := make([]domain.Article, 0, len(items))
	for _, item := range items {
		articles = append(articles, domain.Article{
			Title:      item.WebTitle,
			Standfirst: stripTags(item.Fields.Standfirst),
			URL:        item.WebURL,
			ImageURL:   c.imageURL(item),
		})
	}
	return articles, nil
}

func page(articles []domain.Article, offset int) []domain.Article {
	if offset < 0 || offset >= len(articles) {
		return nil
	}
	end := offset + PageSize
	if end > len(articles) {
		end = len(articles)
	}
	return articles[offset:end]
}

func stripTags(s string) string {
	return tagRegex.ReplaceAllString(s, "")
}

// imageURL выбирает самый широкий ассет не шире 1000px из главного элемента;
// ровно 1000 побеждает сразу. Без подходящего ассета — картинка по умолчанию.
func (c *Client) imageURL(item capiItem) string {
	var element *capiElement
	for i := range item.Elements {
		if item.Elements[i].Relation == "main" {
			element = &item.Elements[i]
			break
		}
	}
	if element == nil && len(item.Elements) > 0 {
		element = &item.Elements[0]
	}
	if element == nil {
		return c.defaultImageURL
	}

	imageURL := c.defaultImageURL
	widest := 0
	for _, asset := range element.Assets {
		width, err := strconv.Atoi(asset.TypeData.Width)
		if err != nil {
			continue
		}
		if width == 1000 {
			return asset.File
		}
		if width < 1000 && width > widest {
			widest = width
			imageURL = asset.File
		}
	}
	return imageURL
}

type capiResponse struct {
	Response struct {
		Results      []capiItem `json:"results"`
		EditorsPicks []capiItem `json:"editorsPicks"`
		MostViewed   []capiItem `json:"mostViewed"`
	} `json:"response"`
}

type capiItem struct {
	WebTitle string `json:"webTitle"`
	WebURL   string `json:"webUrl"`
	Fields   struct {
		Standfirst string `json:"standfirst"`
	} `json:"fields"`
	Elements []capiElement `json:"elements"`
}

type capiElement struct {
	Relation string      `json:"relation"`
	Assets   []capiAsset `json:"assets"`
}

type capiAsset struct {
	File     string       `json:"file"`
	TypeData capiTypeData `json:"typeData"`
}

type capiTypeData struct {
	Width string `json:"width"`
}
