// Package client is the data-access layer for the users API. Every operation
// is a single request against one base URL; failures of any kind come back
// as *Error.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/wichananm65/user-admin/internal/user"
)

// Client handles communication with the users API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBearerToken sends token in the Authorization header of every request.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// New returns a Client for the users collection at baseURL, e.g.
// http://localhost:8080/api/v1/users.
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("client: base URL is required")
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("client: invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ack is the server's answer to a mutating call.
type Ack struct {
	Message string
	// ID is set when the server reports the id of the affected user.
	ID string
}

type createRequest struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Age       int    `json:"age"`
}

// List fetches all users. Entries that do not have the shape of a user are
// skipped; a body that is not a JSON array fails the whole call.
func (c *Client) List(ctx context.Context) ([]user.User, error) {
	res, err := c.do(ctx, http.MethodGet, "", nil)
	if err != nil {
		return nil, err
	}
	if !res.isJSON {
		return nil, invalidFormat(res.status, "expected a JSON array of users")
	}

	body := bytes.TrimSpace(res.body)
	var entries []json.RawMessage
	if !bytes.HasPrefix(body, []byte("[")) || json.Unmarshal(body, &entries) != nil {
		return nil, invalidFormat(res.status, "expected a JSON array of users")
	}

	users := make([]user.User, 0, len(entries))
	for _, raw := range entries {
		if u, ok := decodeUser(raw); ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// Create validates u locally, then posts its trimmed fields. The id of u is
// never sent.
func (c *Client) Create(ctx context.Context, u user.User) (Ack, error) {
	u = user.Normalize(u)
	if err := user.Validate(u); err != nil {
		return Ack{}, validationError(err)
	}

	res, err := c.do(ctx, http.MethodPost, "", createRequest{
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Age:       u.Age,
	})
	if err != nil {
		return Ack{}, err
	}
	return res.ack()
}

func (c *Client) GetByID(ctx context.Context, id string) (user.User, error) {
	path, err := idPath(id)
	if err != nil {
		return user.User{}, err
	}

	res, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return user.User{}, err
	}
	if !res.isJSON {
		return user.User{}, invalidFormat(res.status, "expected a JSON user")
	}
	u, ok := decodeUser(res.body)
	if !ok {
		return user.User{}, invalidFormat(res.status, "expected a JSON user")
	}
	return u, nil
}

// UpdateByID sends only the fields present in patch. An empty patch is sent
// as {}.
func (c *Client) UpdateByID(ctx context.Context, id string, patch user.Patch) (Ack, error) {
	path, err := idPath(id)
	if err != nil {
		return Ack{}, err
	}
	patch = user.NormalizePatch(patch)
	if err := user.ValidatePatch(patch); err != nil {
		return Ack{}, validationError(err)
	}

	res, err := c.do(ctx, http.MethodPatch, path, patch)
	if err != nil {
		return Ack{}, err
	}
	return res.ack()
}

func (c *Client) DeleteByID(ctx context.Context, id string) (Ack, error) {
	path, err := idPath(id)
	if err != nil {
		return Ack{}, err
	}

	res, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return Ack{}, err
	}
	return res.ack()
}

func idPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", validationError(fmt.Errorf("%w: id is required", user.ErrValidation))
	}
	return "/" + url.PathEscape(id), nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Message: "could not encode request body", Err: err}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "Network error: " + err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json, text/plain")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "Network error: " + err.Error(), Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "Network error: " + err.Error(), Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, httpError(res.StatusCode, raw)
	}

	return &response{
		status: res.StatusCode,
		isJSON: isJSONContentType(res.Header.Get("Content-Type")),
		body:   raw,
	}, nil
}
