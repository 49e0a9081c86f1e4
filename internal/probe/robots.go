package probe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// robotsGuard answers whether the probe may load a page, caching one
// robots.txt group per host.
type robotsGuard struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	cache map[string]*robotstxt.Group
}

func newRobotsGuard(client *http.Client, userAgent string) *robotsGuard {
	if client == nil {
		client = http.DefaultClient
	}
	return &robotsGuard{
		client:    client,
		userAgent: userAgent,
		cache:     make(map[string]*robotstxt.Group),
	}
}

func (g *robotsGuard) Allowed(ctx context.Context, link string) (bool, error) {
	u, err := url.Parse(link)
	if err != nil {
		return false, fmt.Errorf("parse page url: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	group, exists := g.cache[u.Host]
	if !exists {
		var definitive bool
		group, definitive = g.fetch(ctx, u)
		if err := ctx.Err(); err != nil {
			return false, err
		}
		// Transient failures allow this load but are asked again next time.
		if definitive {
			g.cache[u.Host] = group
		}
	}
	if group == nil {
		// No robots.txt or parse error = Allowed
		return true, nil
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	return group.Test(path), nil
}

// fetch reports the group for the guard's agent and whether the answer may be
// cached: a parsed robots.txt or a 4xx is definitive, anything else is not.
// A nil group allows everything.
func (g *robotsGuard) fetch(ctx context.Context, u *url.URL) (*robotstxt.Group, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.Scheme+"://"+u.Host+"/robots.txt", nil)
	if err != nil {
		return nil, false
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, true
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, false
	}
	return data.FindGroup(g.userAgent), true
}
