package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"lockbot/pkg/logx"
)

// Config configures the HTTP client.
type Config struct {
	BaseURL   string
	Community string
	Token     string
	UserAgent string
	// RatePerSec caps outbound API calls. 0 means a conservative
	// default; the platform throttles aggressively past ~10 rps.
	RatePerSec int
	Timeout    time.Duration
}

type httpClient struct {
	base      *url.URL
	community string
	token     string
	userAgent string
	hc        *http.Client
	limiter   *rate.Limiter
	log       logx.Logger
}

// NewHTTP builds the production client.
func NewHTTP(cfg Config, log logx.Logger) (Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("platform: base_url is required")
	}
	if strings.TrimSpace(cfg.Community) == "" {
		return nil, fmt.Errorf("platform: community is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("platform: parse base_url: %w", err)
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "lockbot"
	}
	return &httpClient{
		base:      base,
		community: cfg.Community,
		token:     cfg.Token,
		userAgent: ua,
		hc:        &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), rps),
		log:       log,
	}, nil
}

func (c *httpClient) Post(ctx context.Context, id string) (*Post, error) {
	var p Post
	err := c.do(ctx, http.MethodGet, "/api/communities/"+c.community+"/posts/"+url.PathEscape(id), nil, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *httpClient) Moderators(ctx context.Context) ([]string, error) {
	var out struct {
		Moderators []string `json:"moderators"`
	}
	err := c.do(ctx, http.MethodGet, "/api/communities/"+c.community+"/moderators", nil, &out)
	if err != nil {
		return nil, err
	}
	return out.Moderators, nil
}

func (c *httpClient) UserFlair(ctx context.Context, username string) (*UserFlair, error) {
	var out struct {
		Flair *UserFlair `json:"flair"`
	}
	err := c.do(ctx, http.MethodGet,
		"/api/communities/"+c.community+"/users/"+url.PathEscape(username)+"/flair", nil, &out)
	if err != nil {
		return nil, err
	}
	return out.Flair, nil
}

func (c *httpClient) RecentPosts(ctx context.Context, limit int) ([]*Post, error) {
	var out struct {
		Posts []*Post `json:"posts"`
	}
	path := "/api/communities/" + c.community + "/posts?sort=new&limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

func (c *httpClient) Lock(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/posts/"+url.PathEscape(id)+"/lock", nil, nil)
}

func (c *httpClient) SetPostFlair(ctx context.Context, id, templateID string) error {
	body := map[string]string{"template_id": templateID}
	return c.do(ctx, http.MethodPost, "/api/posts/"+url.PathEscape(id)+"/flair", body, nil)
}

func (c *httpClient) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u, err := c.base.Parse(path)
	if err != nil {
		return err
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = strings.NewReader(string(b))
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	case resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("platform: %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
