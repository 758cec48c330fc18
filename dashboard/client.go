package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"postboard/models"
)

// APIError carries the status and detail message the API answered with.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
}

// Client talks to the postboard API. The dashboard is a plain consumer of
// the public HTTP surface; it holds no database access of its own.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Detail == "" {
			apiErr.Detail = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Detail: apiErr.Detail}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Login posts the form-encoded password grant and returns the bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Detail == "" {
			apiErr.Detail = http.StatusText(resp.StatusCode)
		}
		return "", &APIError{Status: resp.StatusCode, Detail: apiErr.Detail}
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}
	return tok.AccessToken, nil
}

func (c *Client) Register(ctx context.Context, firstName, lastName, email, password string) error {
	body := map[string]string{
		"first_name": firstName,
		"last_name":  lastName,
		"email":      email,
		"password":   password,
	}
	return c.do(ctx, http.MethodPost, "/users", "", body, nil)
}

func (c *Client) Profile(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/users/profile/me", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, id int64, changes map[string]any) (*models.User, error) {
	var user models.User
	path := fmt.Sprintf("/users/%d", id)
	if err := c.do(ctx, http.MethodPatch, path, token, changes, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DeleteAccount(ctx context.Context, token string, id int64, password string) error {
	path := fmt.Sprintf("/users/%d", id)
	return c.do(ctx, http.MethodDelete, path, token, map[string]string{"password": password}, nil)
}

func postsPath(base string, limit, skip int, search string) string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("skip", strconv.Itoa(skip))
	if search != "" {
		q.Set("search", search)
	}
	return base + "?" + q.Encode()
}

func (c *Client) ListPosts(ctx context.Context, token string, limit, skip int, search string) ([]models.PostWithVotes, error) {
	var posts []models.PostWithVotes
	if err := c.do(ctx, http.MethodGet, postsPath("/posts", limit, skip, search), token, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) MyPosts(ctx context.Context, token string, limit, skip int, search string) ([]models.PostWithVotes, error) {
	var posts []models.PostWithVotes
	if err := c.do(ctx, http.MethodGet, postsPath("/posts/me", limit, skip, search), token, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) GetPost(ctx context.Context, token string, id int64) (*models.PostWithVotes, error) {
	var post models.PostWithVotes
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d", id), token, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) CreatePost(ctx context.Context, token, title, content string, published bool) error {
	body := map[string]any{"title": title, "content": content, "published": published}
	return c.do(ctx, http.MethodPost, "/posts", token, body, nil)
}

func (c *Client) UpdatePost(ctx context.Context, token string, id int64, title, content string, published bool) error {
	body := map[string]any{"title": title, "content": content, "published": published}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/posts/%d", id), token, body, nil)
}

func (c *Client) DeletePost(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d", id), token, nil, nil)
}

// Vote casts (dir=true) or retracts (dir=false) a vote.
func (c *Client) Vote(ctx context.Context, token string, postID int64, dir bool) error {
	body := map[string]any{"post_id": postID, "dir": dir}
	return c.do(ctx, http.MethodPost, "/vote", token, body, nil)
}
