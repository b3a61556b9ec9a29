package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"kindle-sync/core/region"
	"kindle-sync/feature/library/store"

	"go.uber.org/zap"
)

// ErrNotAuthenticated signals that no usable session exists and the
// user has to log in again.
var ErrNotAuthenticated = errors.New("not authenticated")

// UserAgent identifies the client as a regular desktop browser; the
// notebook service serves the login wall to anything else.
const UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/120.0.0.0 Safari/537.36"

const sessionKeyCookies = "cookies"
const sessionKeyRegion = "region"

// Cookie is the browser-export wire shape of one session cookie.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain,omitempty"`
	Path   string `json:"path,omitempty"`
	Secure bool   `json:"secure,omitempty"`
}

// cookieFile matches the JSON written by the browser-driven login flow.
type cookieFile struct {
	Cookies []Cookie `json:"cookies"`
}

// Manager owns the persisted session and hands out authenticated
// HTTP clients built from it.
type Manager struct {
	store     *store.Store
	region    region.Region
	endpoints region.Endpoints
	timeout   time.Duration
	logger    *zap.Logger
}

// NewManager creates a session manager for one region.
func NewManager(s *store.Store, r region.Region, timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Manager{
		store:     s,
		region:    r,
		endpoints: region.Lookup(r),
		timeout:   timeout,
		logger:    logger,
	}
}

// Region returns the region this session is bound to.
func (m *Manager) Region() region.Region { return m.region }

// ImportCookies stores a browser-exported cookie file as the active
// session and binds it to the manager's region.
func (m *Manager) ImportCookies(ctx context.Context, r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read cookie file: %w", err)
	}

	var file cookieFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse cookie file: %w", err)
	}
	if len(file.Cookies) == 0 {
		return errors.New("cookie file contains no cookies")
	}

	if err := m.store.SaveSession(ctx, sessionKeyCookies, string(raw)); err != nil {
		return err
	}
	if err := m.store.SaveSession(ctx, sessionKeyRegion, string(m.region)); err != nil {
		return err
	}

	m.logger.Info("session saved",
		zap.String("region", string(m.region)),
		zap.Int("cookies", len(file.Cookies)))
	return nil
}

// Client builds an *http.Client carrying the stored session cookies.
// It returns ErrNotAuthenticated when no session is stored.
func (m *Manager) Client(ctx context.Context) (*http.Client, error) {
	raw, err := m.store.GetSession(ctx, sessionKeyCookies)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, ErrNotAuthenticated
	}

	var file cookieFile
	if err := json.Unmarshal([]byte(raw), &file); err != nil {
		return nil, fmt.Errorf("stored session is corrupt: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	base := &url.URL{Scheme: "https", Host: m.endpoints.Hostname}
	cookies := make([]*http.Cookie, 0, len(file.Cookies))
	for _, c := range file.Cookies {
		path := c.Path
		if path == "" {
			path = "/"
		}
		cookies = append(cookies, &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   path,
			Secure: c.Secure,
		})
	}
	jar.SetCookies(base, cookies)

	// The reader URL may sit on a different host (e.g. lesen.amazon.de).
	if reader, err := url.Parse(m.endpoints.ReaderURL); err == nil && reader.Host != base.Host {
		jar.SetCookies(reader, cookies)
	}

	return &http.Client{
		Jar:       jar,
		Timeout:   m.timeout,
		Transport: &uaTransport{base: http.DefaultTransport},
	}, nil
}

// Validate checks that the stored session is still accepted by the
// notebook service.
func (m *Manager) Validate(ctx context.Context) bool {
	client, err := m.Client(ctx)
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoints.NotebookURL, nil)
	if err != nil {
		return false
	}

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return false
	}

	final := strings.ToLower(resp.Request.URL.String())
	return !strings.Contains(final, "signin") && !strings.Contains(final, "login")
}

// Invalidate clears the stored session; the next run will fail with
// ErrNotAuthenticated until the user logs in again.
func (m *Manager) Invalidate(ctx context.Context) error {
	if err := m.store.ClearSession(ctx); err != nil {
		return err
	}
	m.logger.Info("session invalidated")
	return nil
}

// uaTransport injects the browser User-Agent into every request.
type uaTransport struct {
	base http.RoundTripper
}

func (t *uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", UserAgent)
	return t.base.RoundTrip(clone)
}
