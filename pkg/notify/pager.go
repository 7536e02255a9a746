package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var pageCounterScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// Page is the payload delivered to the operator endpoint.
type Page struct {
	Action   string `json:"action"`
	TenderID string `json:"tenderId,omitempty"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Pager delivers operator notifications for critical events.
type Pager interface {
	Notify(ctx context.Context, page Page) error
}

// WebhookPager POSTs pages to an operator webhook (an SMS or paging gateway
// sits behind it). Per-action Redis counters collapse a failure storm into
// one page per window; without Redis every page goes out.
type WebhookPager struct {
	url         string
	httpClient  *http.Client
	redisClient *redis.Client
	prefix      string
	window      time.Duration
}

// WebhookPagerConfig wires the pager. RedisAddr is optional.
type WebhookPagerConfig struct {
	URL           string
	RedisAddr     string
	RedisPassword string
	Prefix        string
	Window        time.Duration
	Timeout       time.Duration
}

// NewWebhookPager creates a pager. Returns nil when no URL is configured,
// which callers treat as "paging disabled".
func NewWebhookPager(cfg WebhookPagerConfig) *WebhookPager {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = "tendercomply:pager"
	}
	window := cfg.Window
	if window <= 0 {
		window = 5 * time.Minute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := &WebhookPager{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		prefix:     prefix,
		window:     window,
	}
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		p.redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.RedisPassword,
		})
	}
	return p
}

// Notify sends one page unless flood control suppresses it. Suppression is
// not an error; callers only hear about delivery failures.
func (p *WebhookPager) Notify(ctx context.Context, page Page) error {
	if p == nil {
		return nil
	}
	suppressed, err := p.floodControlled(ctx, page.Action)
	if err != nil {
		// Counter trouble must not silence operator paging.
		suppressed = false
	}
	if suppressed {
		return nil
	}
	body, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build page request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deliver page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("pager endpoint responded %s", resp.Status)
	}
	return nil
}

func (p *WebhookPager) floodControlled(ctx context.Context, action string) (bool, error) {
	if p.redisClient == nil {
		return false, nil
	}
	action = strings.TrimSpace(action)
	if action == "" {
		action = "unknown"
	}
	windowMs := p.window.Milliseconds()
	slot := time.Now().UTC().UnixMilli() / windowMs
	key := fmt.Sprintf("%s:%s:%d", p.prefix, sanitizeSegment(action), slot)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	count, err := pageCounterScript.Run(ctx, p.redisClient, []string{key}, windowMs).Int64()
	if err != nil {
		return false, err
	}
	return count > 1, nil
}

func sanitizeSegment(in string) string {
	replacer := strings.NewReplacer(":", "_", "|", "_", " ", "_")
	return replacer.Replace(in)
}
