package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/festa/internal/shared"
)

// RequestIDHeader carries a per-request id used to correlate client and server logs.
const RequestIDHeader = "X-Request-ID"

// Transport is an [http.RoundTripper] that authenticates requests to the API origin and recovers from
// expired access tokens.
type Transport struct {
	session *Manager
	origin  *url.URL
	base    http.RoundTripper
	logger  *log.Logger
}

// NewTransport creates a [Transport] for the API at baseURL. base defaults to [http.DefaultTransport].
func NewTransport(m *Manager, baseURL string, base http.RoundTripper) (*Transport, error) {
	origin, err := url.Parse(baseURL)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("%w: api base url %q", shared.ErrInvalidConfig, baseURL)
	}
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{session: m, origin: origin, base: base, logger: m.logger.WithPrefix("transport")}, nil
}

// Client returns an [http.Client] using the transport.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

func (t *Transport) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, t.origin.Scheme) && strings.EqualFold(u.Host, t.origin.Host)
}

// RoundTrip implements [http.RoundTripper].
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.sameOrigin(req.URL) {
		return t.base.RoundTrip(req)
	}

	out, err := replayable(req)
	if err != nil {
		return nil, err
	}
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, shared.GenerateID())
	}

	sent, _ := t.session.Tokens()
	resp, err := t.send(out, sent)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	ctx := req.Context()
	current, refresh := t.session.Tokens()
	logger := t.logger.With("request_id", out.Header.Get(RequestIDHeader), "path", req.URL.Path)

	if refresh == "" {
		if current != "" {
			logger.Debug("401 without a refresh token")
			t.session.expire(ctx)
		}
		return resp, nil
	}

	fresh := current
	if current == "" || current == sent {
		fresh, err = t.session.renew(ctx, sent)
		if err != nil {
			if current != "" && ctx.Err() == nil && !errors.Is(err, shared.ErrSessionExpired) {
				logger.Debug("refresh after 401 failed", "err", err)
				t.session.expire(ctx)
			}
			return resp, nil
		}
	}

	retry, err := rewind(out)
	if err != nil {
		return resp, nil
	}
	drain(resp)

	logger.Debug("resending with refreshed token")
	return t.send(retry, fresh)
}

func (t *Transport) send(req *http.Request, access string) (*http.Response, error) {
	if access != "" {
		(&oauth2.Token{AccessToken: access}).SetAuthHeader(req)
	} else {
		req.Header.Del("Authorization")
	}
	return t.base.RoundTrip(req)
}

// replayable clones req so that its body can be sent twice.
func replayable(req *http.Request) (*http.Request, error) {
	out := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return out, nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to buffer request body: %w", err)
	}
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	out.Body, _ = out.GetBody()
	return out, nil
}

func rewind(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.GetBody == nil {
		return retry, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	retry.Body = body
	return retry, nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	resp.Body.Close()
}
