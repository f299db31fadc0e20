// Package registry queries the package registry's metadata API.
//
// The API answers two shapes of request:
//
//	GET {apiURL}/{package}            -> {"tags": {"latest": ...}, "versions": [...]}
//	GET {apiURL}/{package}@{version}  -> {"tags": ..., "files": [{"name", "type", "files"}...]}
//
// Responses are cached for the lifetime of a Client so one run never fetches
// the same package or package@version twice.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"cdnsync/internal/logger"
	"cdnsync/internal/models"
)

var ErrFetch = errors.New("registry fetch failed")

// StatusError reports a non-200 answer from the registry.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET '%s' code: %d, error: %s", e.URL, e.StatusCode, e.Body)
}

// Client is what the orchestrator needs from a registry.
type Client interface {
	FetchPackage(ctx context.Context, spec string) (*models.PackageDocument, error)
	FetchVersions(ctx context.Context, name string) ([]string, error)
	LatestTag(ctx context.Context, name string) (string, error)
}

// Observer receives one call per registry round trip. Cache hits are not reported.
type Observer interface {
	ObserveRequest(kind string, err error, elapsed time.Duration)
}

type HTTPConfig struct {
	ApiUrl   string
	Timeout  time.Duration
	Observer Observer
}

type entry struct {
	doc  *models.PackageDocument
	err  error
	done chan struct{}
}

// HTTPClient talks to the registry over HTTP.
type HTTPClient struct {
	apiUrl   string
	client   *http.Client
	observer Observer

	mu    sync.Mutex
	cache map[string]*entry
}

/**
 * Create registry client
 * @param {HTTPConfig} cfg - API base, per-request timeout and optional metrics observer
 * @returns {*HTTPClient} Client with an empty per-run cache
 */
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPClient{
		apiUrl:   strings.TrimSuffix(cfg.ApiUrl, "/"),
		client:   &http.Client{Transport: transport, Timeout: cfg.Timeout},
		observer: cfg.Observer,
		cache:    make(map[string]*entry),
	}
}

/**
 * Fetch registry metadata for a package or a package@version
 * @param {string} spec - "name" or "name@version"; scoped names ("@scope/name") are passed through
 * @returns {*models.PackageDocument} Decoded document, shared with later callers of the same spec
 * @description
 * - Concurrent callers of the same spec wait for a single request
 * - Failures are cached too: a spec that failed once fails for the rest of the run
 * @throws
 * - ErrFetch wrapping transport, status or decode errors
 */
func (c *HTTPClient) FetchPackage(ctx context.Context, spec string) (*models.PackageDocument, error) {
	c.mu.Lock()
	if e, ok := c.cache[spec]; ok {
		c.mu.Unlock()
		select {
		case <-e.done:
			return e.doc, e.err
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrFetch, spec, ctx.Err())
		}
	}
	e := &entry{done: make(chan struct{})}
	c.cache[spec] = e
	c.mu.Unlock()

	e.doc, e.err = c.fetch(ctx, spec)
	close(e.done)
	return e.doc, e.err
}

func (c *HTTPClient) fetch(ctx context.Context, spec string) (*models.PackageDocument, error) {
	kind := "package"
	if strings.LastIndex(spec, "@") > 0 {
		kind = "version"
	}
	start := time.Now()
	doc, err := c.get(ctx, fmt.Sprintf("%s/%s", c.apiUrl, spec))
	if c.observer != nil {
		c.observer.ObserveRequest(kind, err, time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, spec, err)
	}
	return doc, nil
}

func (c *HTTPClient) get(ctx context.Context, urlStr string) (*models.PackageDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	logger.Debugf("GET %s", urlStr)
	rsp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(rsp.Body, 512))
		return nil, &StatusError{URL: urlStr, StatusCode: rsp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	var doc models.PackageDocument
	if err := json.NewDecoder(rsp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode '%s': %w", urlStr, err)
	}
	return &doc, nil
}

// FetchVersions lists every published version of name, registry order.
func (c *HTTPClient) FetchVersions(ctx context.Context, name string) ([]string, error) {
	doc, err := c.FetchPackage(ctx, name)
	if err != nil {
		return nil, err
	}
	return doc.Versions, nil
}

// LatestTag returns the version the registry tags "latest". Empty when untagged.
func (c *HTTPClient) LatestTag(ctx context.Context, name string) (string, error) {
	doc, err := c.FetchPackage(ctx, name)
	if err != nil {
		return "", err
	}
	return doc.Tags.Latest, nil
}

// VersionSpec joins a package name and version the way the API expects.
func VersionSpec(name, version string) string {
	return name + "@" + version
}
