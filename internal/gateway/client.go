package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kubedeck/kubedeck-backend/internal/document"
	"github.com/kubedeck/kubedeck-backend/internal/document/diff"
	"github.com/kubedeck/kubedeck-backend/internal/document/validation"
	"github.com/kubedeck/kubedeck-backend/internal/models"
)

const defaultRequestTimeout = 30 * time.Second

// Client talks to the resource store over HTTP. Safe for concurrent
// use.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// NewClient returns a gateway client rooted at baseURL (e.g.
// "http://localhost:8080/api").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type getConfigResponse struct {
	Configuration map[string]any `json:"configuration"`
}

// GetConfig fetches the live configuration document for the resource.
func (c *Client) GetConfig(ctx context.Context, ref models.ResourceRef) (document.Document, error) {
	url := fmt.Sprintf("%s/%s/%s/%s/config", c.baseURL, ref.Type, ref.Namespace, ref.Name)
	var resp getConfigResponse
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}
	return document.Normalize(resp.Configuration), nil
}

type putConfigBody struct {
	Configuration document.Document     `json:"configuration"`
	DryRun        bool                  `json:"dry_run"`
	Strategy      models.UpdateStrategy `json:"strategy"`
}

// PutConfig applies doc to the resource. With dryRun the server
// validates and simulates the change without persisting it; a real
// apply returns a rollback key referencing the pre-apply state.
func (c *Client) PutConfig(ctx context.Context, ref models.ResourceRef, doc document.Document, dryRun bool, strategy models.UpdateStrategy) (*models.ApplyResult, error) {
	url := fmt.Sprintf("%s/%s/%s/%s/config", c.baseURL, ref.Type, ref.Namespace, ref.Name)
	body := putConfigBody{Configuration: doc, DryRun: dryRun, Strategy: strategy}
	var result models.ApplyResult
	if err := c.do(ctx, http.MethodPut, url, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type validateBody struct {
	ResourceType  string            `json:"resource_type"`
	Configuration document.Document `json:"config"`
}

type validateResponse struct {
	Valid            bool               `json:"valid"`
	ValidationErrors []validation.Issue `json:"validation_errors"`
}

// ValidateConfig runs server-side validation without applying.
func (c *Client) ValidateConfig(ctx context.Context, resourceType string, doc document.Document) ([]validation.Issue, error) {
	var resp validateResponse
	body := validateBody{ResourceType: resourceType, Configuration: doc}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/validate-config", body, &resp); err != nil {
		return nil, err
	}
	return resp.ValidationErrors, nil
}

type diffBody struct {
	Original document.Document `json:"original_config"`
	Updated  document.Document `json:"updated_config"`
}

type diffResponse struct {
	Diff       []diff.Change `json:"diff"`
	HasChanges bool          `json:"has_changes"`
}

// ConfigDiff asks the server for the structural diff of two documents.
func (c *Client) ConfigDiff(ctx context.Context, original, updated document.Document) ([]diff.Change, error) {
	var resp diffResponse
	body := diffBody{Original: original, Updated: updated}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/config-diff", body, &resp); err != nil {
		return nil, err
	}
	return resp.Diff, nil
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindUnknown, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &Error{
			Kind:       kindForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readErrorMessage pulls the message out of a structured error body
// ({"error":{"code","message"}}), falling back to the raw text.
func readErrorMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &apiErr); err == nil {
		if apiErr.Error.Message != "" {
			return apiErr.Error.Message
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
	}
	return string(b)
}
