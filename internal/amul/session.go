package amul

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"github.com/rkhanna/amulwatch/internal/retry"
)

// sessionPrefix introduces the JSON payload in the session-info body.
const sessionPrefix = "session = "

// SessionState tracks bootstrap progress. Transitions are strictly
// forward; Failed is terminal.
type SessionState int

// Bootstrap states, in order.
const (
	StateUninitialized SessionState = iota
	StateCookiesWarmed
	StateSessionIdentified
	StateRegionSet
	StateReady
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCookiesWarmed:
		return "cookies_warmed"
	case StateSessionIdentified:
		return "session_identified"
	case StateRegionSet:
		return "region_set"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is the ephemeral, process-lifetime browsing context: cookie
// jar, session seed, and regional preference. Never persisted; rebuilt
// on every run.
type Session struct {
	httpClient *http.Client
	seed       string
	substore   string
	state      SessionState
}

// State returns the current bootstrap state.
func (s *Session) State() SessionState { return s.state }

// Substore returns the resolved substore code, or empty when the
// server resolved the raw pincode itself.
func (s *Session) Substore() string { return s.substore }

// Bootstrap performs the full handshake: warm cookies, identify the
// session, set the regional preference. Each step is retried under the
// client's policy; exhausting any step fails the whole session.
func (c *Client) Bootstrap(ctx context.Context) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	sess := &Session{
		httpClient: &http.Client{Timeout: c.httpTimeout, Jar: jar},
	}

	if err := c.warmCookies(ctx, sess); err != nil {
		sess.state = StateFailed
		return nil, fmt.Errorf("warming cookies: %w", err)
	}
	sess.state = StateCookiesWarmed
	c.log.Debug("session bootstrap", "state", sess.state.String())

	if err := c.identifySession(ctx, sess); err != nil {
		sess.state = StateFailed
		return nil, fmt.Errorf("identifying session: %w", err)
	}
	sess.state = StateSessionIdentified
	c.log.Debug("session bootstrap", "state", sess.state.String())

	if err := c.setRegion(ctx, sess); err != nil {
		sess.state = StateFailed
		return nil, fmt.Errorf("setting region: %w", err)
	}
	sess.state = StateRegionSet
	c.log.Debug("session bootstrap", "state", sess.state.String(), "substore", sess.substore)

	sess.state = StateReady
	return sess, nil
}

// warmCookies loads a known browsing page, discarding the body but
// retaining the session cookies the site plants.
func (c *Client) warmCookies(ctx context.Context, sess *Session) error {
	return retryVoid(ctx, c, func() error {
		_, err := c.doRequest(ctx, sess, http.MethodGet, c.browsePath, nil, nil, "warm_cookies")
		return err
	})
}

// identifySession fetches the session-info endpoint and extracts the
// tid seed from its prefixed-text body.
func (c *Client) identifySession(ctx context.Context, sess *Session) error {
	seed, err := retryValue(ctx, c, func() (string, error) {
		body, err := c.doRequest(ctx, sess, http.MethodGet, c.sessionPath, nil, nil, "identify_session")
		if err != nil {
			return "", err
		}
		return parseSessionSeed(body)
	})
	if err != nil {
		return err
	}
	sess.seed = seed
	return nil
}

// parseSessionSeed extracts the tid field from a "session = {...}"
// body. A missing prefix or field is a protocol error, not a transient
// one, but callers still retry it: format glitches have been observed
// to clear on CDN rotation.
func parseSessionSeed(body []byte) (string, error) {
	idx := bytes.Index(body, []byte(sessionPrefix))
	if idx < 0 {
		return "", fmt.Errorf("%w: session prefix missing", ErrProtocol)
	}

	var info struct {
		Tid string `json:"tid"`
	}
	dec := json.NewDecoder(bytes.NewReader(body[idx+len(sessionPrefix):]))
	if err := dec.Decode(&info); err != nil {
		return "", fmt.Errorf("%w: session payload unparsable: %v", ErrProtocol, err)
	}
	if info.Tid == "" {
		return "", fmt.Errorf("%w: session tid field absent", ErrProtocol)
	}
	return info.Tid, nil
}

// setRegion establishes the regional preference. Fast path: a locally
// resolved substore code, confirmed by a trial fetch. Slow path: send
// the raw pincode and let the server resolve it.
func (c *Client) setRegion(ctx context.Context, sess *Session) error {
	if code, ok := c.resolver.Resolve(c.pincode); ok {
		if err := c.putPreference(ctx, sess, "store", code, "set_store"); err != nil {
			c.log.Warn("substore preference rejected, falling back to pincode", "substore", code, "error", err)
		} else if err := c.probeRegion(ctx, sess, code); err != nil {
			c.log.Warn("substore serves no data, falling back to pincode", "substore", code, "error", err)
		} else {
			sess.substore = code
			return nil
		}
	}

	if c.pincode == "" {
		return fmt.Errorf("no pincode configured for server-side region resolution")
	}
	return c.putPreference(ctx, sess, "pincode", c.pincode, "set_pincode")
}

func (c *Client) putPreference(ctx context.Context, sess *Session, field, value, stage string) error {
	payload, err := json.Marshal(map[string]string{field: value})
	if err != nil {
		return fmt.Errorf("marshaling preference: %w", err)
	}
	return retryVoid(ctx, c, func() error {
		_, err := c.doRequest(ctx, sess, http.MethodPut, c.prefsPath, nil, bytes.NewReader(payload), stage)
		return err
	})
}

// probeRegion issues one trial catalog fetch to confirm the resolved
// substore actually serves data. Deliberately not retried.
func (c *Client) probeRegion(ctx context.Context, sess *Session, substore string) error {
	q := url.Values{}
	q.Set("fields[alias]", "1")
	q.Set("limit", "1")
	q.Set("substore", substore)
	q.Set("_", strconv.FormatInt(c.nowFunc().UnixMilli(), 10))

	body, err := c.doRequest(ctx, sess, http.MethodGet, c.catalogPath, q, nil, "probe_region")
	if err != nil {
		return err
	}

	var resp struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: probe response unparsable: %v", ErrProtocol, err)
	}
	if len(resp.Data) == 0 {
		return fmt.Errorf("%w: substore %s returned no catalog data", ErrProtocol, substore)
	}
	return nil
}

// retryVoid and retryValue adapt the shared retry policy for this
// package, attaching a log line per backoff wait.

func retryVoid(ctx context.Context, c *Client, op func() error) error {
	_, err := retryValue(ctx, c, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}

func retryValue[T any](ctx context.Context, c *Client, op func() (T, error)) (T, error) {
	p := c.policy
	if p.Notify == nil {
		p.Notify = func(err error, next time.Duration) {
			c.log.Warn("request failed, backing off", "delay", next, "error", err)
		}
	}
	return retry.Do(ctx, p, op)
}
