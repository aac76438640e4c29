package repositories

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"blogdesk/app/models"
)

// Default messages used when a failed envelope carries none.
const (
	msgLoadPostsFailed = "Failed to load blog posts"
	msgLoadPostFailed  = "Failed to load blog post"
	msgOperationFailed = "Operation failed"
	msgDeleteFailed    = "Failed to delete blog post"
)

// APIPostRepository implements PostRepository over the blog REST API
type APIPostRepository struct {
	baseURL string
	client  *http.Client
}

// NewAPIPostRepository creates a repository talking to the API at baseURL.
// A nil client means http.DefaultClient.
func NewAPIPostRepository(baseURL string, client *http.Client) *APIPostRepository {
	if client == nil {
		client = http.DefaultClient
	}
	return &APIPostRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// List fetches every post, in the order the API returns them.
func (r *APIPostRepository) List(ctx context.Context) ([]*models.Post, error) {
	env, err := r.do(ctx, "list", http.MethodGet, "/blogs", nil, msgLoadPostsFailed)
	if err != nil {
		return nil, err
	}

	posts := []*models.Post{}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return posts, nil
	}
	if err := unmarshalEntity(env.Data, &posts); err != nil {
		return nil, &RequestError{Op: "list", Message: msgLoadPostsFailed, Err: err}
	}
	return posts, nil
}

// GetByID fetches a single post.
func (r *APIPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	env, err := r.do(ctx, "get", http.MethodGet, postPath(id), nil, msgLoadPostFailed)
	if err != nil {
		return nil, err
	}

	var post models.Post
	if err := unmarshalEntity(env.Data, &post); err != nil {
		return nil, &RequestError{Op: "get", Message: msgLoadPostFailed, Err: err}
	}
	return &post, nil
}

// Create creates a new post
func (r *APIPostRepository) Create(ctx context.Context, in models.PostInput) (string, error) {
	env, err := r.do(ctx, "create", http.MethodPost, "/blogs", in, msgOperationFailed)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// Update replaces the fields of an existing post
func (r *APIPostRepository) Update(ctx context.Context, id string, in models.PostInput) (string, error) {
	env, err := r.do(ctx, "update", http.MethodPut, postPath(id), in, msgOperationFailed)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// Delete deletes a post by ID
func (r *APIPostRepository) Delete(ctx context.Context, id string) (string, error) {
	env, err := r.do(ctx, "delete", http.MethodDelete, postPath(id), nil, msgDeleteFailed)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func postPath(id string) string {
	return "/blogs/" + url.PathEscape(id)
}

// do performs one round trip and decodes the envelope. Any failure, including
// success=false, comes back as a *RequestError carrying the message to show.
func (r *APIPostRepository) do(ctx context.Context, op, method, path string, payload interface{}, fallback string) (*models.Envelope, error) {
	var body io.Reader
	if payload != nil {
		data, err := marshalEntity(payload)
		if err != nil {
			return nil, &RequestError{Op: op, Message: fallback, Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return nil, &RequestError{Op: op, Message: fallback, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &RequestError{Op: op, Message: "Failed to fetch", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Op: op, Status: resp.StatusCode, Message: fallback, Err: err}
	}

	var env models.Envelope
	if err := unmarshalEntity(raw, &env); err != nil {
		return nil, &RequestError{
			Op:      op,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("invalid response from blog API (%s)", resp.Status),
			Err:     err,
		}
	}

	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = fallback
		}
		return nil, &RequestError{Op: op, Status: resp.StatusCode, Message: msg}
	}
	return &env, nil
}
