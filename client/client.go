package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/personagens/core"
)

const (
	defaultTimeout = 10 * time.Second
)

var tracer = otel.Tracer("client")

// Client talks to a personagens service over HTTP
type Client interface {
	Create(ctx context.Context, input core.CharacterInput) (core.Character, error)
	List(ctx context.Context) ([]core.Character, error)
	Get(ctx context.Context, id uint64) (core.Character, error)
	Update(ctx context.Context, id uint64, input core.CharacterInput) (core.Character, error)
	Delete(ctx context.Context, id uint64) error
}

type client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client for the service at baseURL (e.g. http://localhost:8080)
func NewClient(baseURL string) Client {
	return &client{
		endpoint: strings.TrimSuffix(baseURL, "/") + core.CharacterBasePath,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
	}
}

func (c *client) do(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.http.Do(req)
}

func (c *client) itemURL(id uint64) string {
	return c.endpoint + "/" + strconv.FormatUint(id, 10)
}

// decodeError turns a non-success response into the matching core error
func decodeError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("unexpected status code: %d (failed to read body: %w)", resp.StatusCode, err)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return core.NewErrorNotFound()
	case http.StatusBadRequest:
		var fields map[string]string
		if err := json.Unmarshal(body, &fields); err == nil && fields["error"] == "" {
			return core.NewErrorValidation(fields)
		}
	}

	return fmt.Errorf("unexpected status code: %d (%s)", resp.StatusCode, strings.TrimSpace(string(body)))
}

func decode[T any](resp *http.Response, expected int) (T, error) {
	var out T
	if resp.StatusCode != expected {
		return out, decodeError(resp)
	}
	err := json.NewDecoder(resp.Body).Decode(&out)
	return out, err
}

func (c *client) Create(ctx context.Context, input core.CharacterInput) (core.Character, error) {
	ctx, span := tracer.Start(ctx, "Client.Create")
	defer span.End()

	resp, err := c.do(ctx, http.MethodPost, c.endpoint, input)
	if err != nil {
		span.RecordError(err)
		return core.Character{}, err
	}
	defer resp.Body.Close()

	return decode[core.Character](resp, http.StatusCreated)
}

func (c *client) List(ctx context.Context) ([]core.Character, error) {
	ctx, span := tracer.Start(ctx, "Client.List")
	defer span.End()

	resp, err := c.do(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer resp.Body.Close()

	return decode[[]core.Character](resp, http.StatusOK)
}

func (c *client) Get(ctx context.Context, id uint64) (core.Character, error) {
	ctx, span := tracer.Start(ctx, "Client.Get")
	defer span.End()

	resp, err := c.do(ctx, http.MethodGet, c.itemURL(id), nil)
	if err != nil {
		span.RecordError(err)
		return core.Character{}, err
	}
	defer resp.Body.Close()

	return decode[core.Character](resp, http.StatusOK)
}

func (c *client) Update(ctx context.Context, id uint64, input core.CharacterInput) (core.Character, error) {
	ctx, span := tracer.Start(ctx, "Client.Update")
	defer span.End()

	resp, err := c.do(ctx, http.MethodPut, c.itemURL(id), input)
	if err != nil {
		span.RecordError(err)
		return core.Character{}, err
	}
	defer resp.Body.Close()

	return decode[core.Character](resp, http.StatusOK)
}

func (c *client) Delete(ctx context.Context, id uint64) error {
	ctx, span := tracer.Start(ctx, "Client.Delete")
	defer span.End()

	resp, err := c.do(ctx, http.MethodDelete, c.itemURL(id), nil)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return decodeError(resp)
	}
	return nil
}
