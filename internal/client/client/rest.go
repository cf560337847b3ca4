package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/client/models"
	"github.com/dmitrijs2005/streamkeeper/internal/netx"
)

// RESTClient talks to the streamkeeper HTTP API.
type RESTClient struct {
	baseURL string
	http    netx.Doer
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *RESTClient) BaseURL() string {
	return c.baseURL
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type streamBody struct {
	Message string         `json:"message"`
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Stream  *models.Stream `json:"stream"`
}

func bearer(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func (c *RESTClient) do(ctx context.Context, method, path, token string, in, out any) error {
	err := netx.DoJSON(ctx, c.http, method, c.baseURL+path, bearer(token), in, out)
	return c.mapError(err)
}

// mapError turns transport failures into ErrUnavailable and error bodies
// into *APIError.
func (c *RESTClient) mapError(err error) error {
	if err == nil {
		return nil
	}

	var se *netx.StatusError
	if !errors.As(err, &se) {
		var (
			opErr  *net.OpError
			urlErr *url.Error
		)
		if errors.As(err, &opErr) || (errors.As(err, &urlErr) && urlErr.Timeout()) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}

	var body errorBody
	_ = json.Unmarshal(se.Body, &body)
	if body.Error == "" {
		body.Error = http.StatusText(se.StatusCode)
	}
	return &APIError{Status: se.StatusCode, Code: body.Code, Message: body.Error}
}

func (c *RESTClient) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *RESTClient) Login(ctx context.Context, identifier, password string) (string, *models.User, error) {
	req := map[string]string{"password": password}
	if strings.Contains(identifier, "@") {
		req["email"] = identifier
	} else {
		req["username"] = identifier
	}

	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", req, &resp); err != nil {
		return "", nil, err
	}
	return resp.Token, &resp.User, nil
}

func (c *RESTClient) Me(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GenerateKey returns the caller's active stream. created is false when the
// server answered 409 with an already active stream.
func (c *RESTClient) GenerateKey(ctx context.Context, token string) (*models.Stream, bool, error) {
	var resp streamBody
	err := netx.DoJSON(ctx, c.http, http.MethodPost, c.baseURL+"/api/streams/generate-key", bearer(token), nil, &resp)

	var se *netx.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusConflict {
		if jerr := json.Unmarshal(se.Body, &resp); jerr == nil && resp.Stream != nil {
			return resp.Stream, false, nil
		}
	}
	if err != nil {
		return nil, false, c.mapError(err)
	}
	return resp.Stream, true, nil
}

func (c *RESTClient) StopStream(ctx context.Context, token string) (*models.Stream, error) {
	var resp streamBody
	if err := c.do(ctx, http.MethodPost, "/api/streams/stop", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Stream, nil
}

func (c *RESTClient) ListStreams(ctx context.Context, token string) ([]*models.Stream, error) {
	var resp struct {
		Streams []*models.Stream `json:"streams"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/streams", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Streams, nil
}
