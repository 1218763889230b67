// Package labels resolves human-readable app names from a store listing
package labels

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"focusbridge/internal/infrastructure/logging"
)

const (
	userAgent         = "Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Mobile Safari/537.36"
	lookupParallelism = 4
	packageKey        = "package"
)

// PlayStoreResolver scrapes the listing page title for a package. Results,
// misses included, are kept for the lifetime of the resolver.
type PlayStoreResolver struct {
	baseURL string
	timeout time.Duration
	logger  logging.Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewPlayStoreResolver creates a resolver for listing pages under baseURL,
// which is queried as baseURL?id=<package>
func NewPlayStoreResolver(baseURL string, timeout time.Duration, logger logging.Logger) *PlayStoreResolver {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &PlayStoreResolver{
		baseURL: baseURL,
		timeout: timeout,
		logger:  logger,
		cache:   make(map[string]string),
	}
}

// Resolve returns the listing title for packageName, or "" when the page
// cannot be fetched or has no title
func (r *PlayStoreResolver) Resolve(ctx context.Context, packageName string) string {
	return r.ResolveAll(ctx, []string{packageName})[packageName]
}

// ResolveAll looks up every uncached package in one batch and returns the
// titles it found. Lookups stop when ctx is done; packages cut short are
// not cached.
func (r *PlayStoreResolver) ResolveAll(ctx context.Context, packageNames []string) map[string]string {
	found := make(map[string]string)
	seen := make(map[string]bool, len(packageNames))
	var pending []string

	r.mu.Lock()
	for _, pkg := range packageNames {
		if pkg == "" || seen[pkg] {
			continue
		}
		seen[pkg] = true
		if label, ok := r.cache[pkg]; ok {
			if label != "" {
				found[pkg] = label
			}
			continue
		}
		pending = append(pending, pkg)
	}
	r.mu.Unlock()

	if len(pending) == 0 || ctx.Err() != nil {
		return found
	}

	fetched := r.fetchAll(ctx, pending)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pkg := range pending {
		label, ok := fetched[pkg]
		if !ok && ctx.Err() != nil {
			continue
		}
		r.cache[pkg] = label
		if label != "" {
			found[pkg] = label
		}
	}
	return found
}

func (r *PlayStoreResolver) listingURL(packageName string) (string, error) {
	u, err := url.Parse(r.baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("id", packageName)
	q.Set("hl", "en")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// fetchAll requests every listing through one async collector. The result
// holds an entry, possibly "", for each page that was served.
func (r *PlayStoreResolver) fetchAll(ctx context.Context, packageNames []string) map[string]string {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.Async(true),
		colly.StdlibContext(ctx),
	)
	if r.timeout > 0 {
		c.SetRequestTimeout(r.timeout)
	}
	if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: lookupParallelism}); err != nil {
		r.logger.Warn("Label lookup limit rejected", "error", err.Error())
	}

	var mu sync.Mutex
	titles := make(map[string]string, len(packageNames))

	c.OnResponse(func(resp *colly.Response) {
		pkg := resp.Ctx.Get(packageKey)
		mu.Lock()
		defer mu.Unlock()
		if _, ok := titles[pkg]; !ok {
			titles[pkg] = ""
		}
	})
	c.OnHTML("h1", func(e *colly.HTMLElement) {
		pkg := e.Request.Ctx.Get(packageKey)
		mu.Lock()
		defer mu.Unlock()
		if titles[pkg] == "" {
			titles[pkg] = strings.TrimSpace(e.Text)
		}
	})
	c.OnError(func(resp *colly.Response, err error) {
		r.logger.Debug("Label lookup failed",
			"package", resp.Ctx.Get(packageKey),
			"status", resp.StatusCode,
			"error", err.Error())
	})

	for _, pkg := range packageNames {
		listing, err := r.listingURL(pkg)
		if err != nil {
			r.logger.Debug("Label lookup failed", "package", pkg, "error", err.Error())
			continue
		}
		reqCtx := colly.NewContext()
		reqCtx.Put(packageKey, pkg)
		if err := c.Request("GET", listing, nil, reqCtx, nil); err != nil {
			r.logger.Debug("Label lookup failed", "package", pkg, "error", err.Error())
		}
	}
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]string, len(titles))
	for pkg, title := range titles {
		out[pkg] = title
	}
	return out
}
