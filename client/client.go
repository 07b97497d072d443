// Package client talks to the quick-event REST API. Authenticated calls carry
// the bearer token held by a session.Store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mbolis/quick-event/log"
	"github.com/mbolis/quick-event/model"
	"github.com/mbolis/quick-event/session"
)

type Client struct {
	baseURL string
	http    *http.Client
	session *session.Store
	now     func() time.Time

	// OnAuthExpired runs after a 401 has cleared the session, e.g. to send
	// the user back to a login screen.
	OnAuthExpired func()
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, s *session.Store, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		session: s,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

type request struct {
	method string
	path   string
	body   any
	auth   bool
	header http.Header
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	op := req.method + " " + req.path

	var body io.Reader = http.NoBody
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.url(req.path), body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for k, v := range req.header {
		httpReq.Header[k] = v
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	if req.auth {
		tok, ok := c.session.Token()
		if !ok {
			c.expire()
			return ErrAuthExpired
		}
		httpReq.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized && req.auth {
		log.Debugf("client: %s: token rejected", op)
		c.expire()
		return ErrAuthExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return rejection(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func rejection(status int, raw []byte) *ServerRejection {
	r := &ServerRejection{Status: status}
	var body model.ErrorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		r.Message = body.Message
		r.FieldErrors = body.Errors
	} else {
		r.Message = strings.TrimSpace(string(raw))
	}
	return r
}

func (c *Client) expire() {
	c.session.Clear()
	if c.OnAuthExpired != nil {
		c.OnAuthExpired()
	}
}

// Login exchanges credentials for a token and stores it in the session.
func (c *Client) Login(ctx context.Context, user, password string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/api/login"), http.NoBody)
	if err != nil {
		return err
	}
	req.SetBasicAuth(user, password)

	tok, err := c.token(req)
	if err != nil {
		return err
	}
	c.session.SignIn(user, tok)
	return nil
}

// Refresh trades the session's refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context) error {
	cur, ok := c.session.Token()
	if !ok || cur.RefreshToken == "" {
		c.expire()
		return ErrAuthExpired
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/api/refresh"), http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Refresh "+cur.RefreshToken)

	tok, err := c.token(req)
	if errors.Is(err, ErrAuthExpired) {
		c.expire()
		return err
	}
	if err != nil {
		return err
	}
	c.session.SignIn(c.session.User(), tok)
	return nil
}

func (c *Client) token(req *http.Request) (session.Token, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return session.Token{}, &NetworkError{Op: req.Method + " " + req.URL.Path, Err: err}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return session.Token{}, ErrAuthExpired
	case resp.StatusCode != http.StatusOK:
		return session.Token{}, rejection(resp.StatusCode, raw)
	}

	var tok session.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return session.Token{}, fmt.Errorf("decode token: %w", err)
	}
	tok.IssuedAt = c.now()
	return tok, nil
}

func eventPath(id int64, suffix string) string {
	return "/api/events/" + strconv.FormatInt(id, 10) + suffix
}
