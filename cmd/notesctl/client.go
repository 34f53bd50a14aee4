package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const requestTimeout = 10 * time.Second

var errNoToken = errors.New("not signed in")

// apiError is the error body the server writes for every failed request.
type apiError struct {
	Status  int
	Message string `json:"error"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server answered %d: %s", e.Status, e.Message)
}

type task struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type note struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"deleted_at"`
	ReminderAt *time.Time `json:"reminder_at"`
	Tags       []string   `json:"tags"`
	ImageURL   *string    `json:"image_url"`
	AudioURL   *string    `json:"audio_url"`
	Tasks      []task     `json:"tasks"`
}

type newNote struct {
	Text       string     `json:"text"`
	Tags       []string   `json:"tags,omitempty"`
	ReminderAt *time.Time `json:"reminder_at,omitempty"`
}

type noteResponse struct {
	Note    *note  `json:"note"`
	Warning string `json:"warning,omitempty"`
}

type listResponse struct {
	Notes []*note `json:"notes"`
	Total int     `json:"total"`
}

type emptyTrashResponse struct {
	Purged int `json:"purged"`
	Failed int `json:"failed"`
}

// client talks to the /api/v1 surface of a running server.
type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// login signs up the account, falling back to sign-in when it already exists.
func (c *client) login(ctx context.Context, email, password string) (created bool, err error) {
	creds := map[string]string{"email": email, "password": password}
	var out struct {
		Token string `json:"token"`
	}

	err = c.do(ctx, http.MethodPost, "/auth/sign-up", creds, &out)
	if err == nil {
		c.token = out.Token
		return true, nil
	}
	var ae *apiError
	if !errors.As(err, &ae) || ae.Status != http.StatusBadRequest {
		return false, err
	}

	if err := c.do(ctx, http.MethodPost, "/auth/sign-in", creds, &out); err != nil {
		return false, err
	}
	c.token = out.Token
	return false, nil
}

func (c *client) createNote(ctx context.Context, n newNote) (*noteResponse, error) {
	var out noteResponse
	if err := c.do(ctx, http.MethodPost, "/notes", n, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) listNotes(ctx context.Context, q string, tags []string) (*listResponse, error) {
	params := url.Values{}
	if q != "" {
		params.Set("q", q)
	}
	if len(tags) > 0 {
		params.Set("tags", strings.Join(tags, ","))
	}
	path := "/notes"
	if enc := params.Encode(); enc != "" {
		path += "?" + enc
	}

	var out listResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) listTrash(ctx context.Context) (*listResponse, error) {
	var out listResponse
	if err := c.do(ctx, http.MethodGet, "/trash", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) emptyTrash(ctx context.Context) (*emptyTrashResponse, error) {
	var out emptyTrashResponse
	if err := c.do(ctx, http.MethodDelete, "/trash", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !strings.HasPrefix(path, "/auth/") {
		if c.token == "" {
			return errNoToken
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		ae := &apiError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(ae)
		return ae
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
