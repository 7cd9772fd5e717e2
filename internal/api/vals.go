package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// WebURL is the public site vals are served from.
const WebURL = "https://val.town"

// Author identifies the owner of a val.
type Author struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
}

// Val is a remote script.
type Val struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code,omitempty"`
	Privacy   string `json:"privacy,omitempty"`
	Version   int    `json:"version"`
	Readme    string `json:"readme,omitempty"`
	Author    Author `json:"author"`
	CreatedAt string `json:"createdAt,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Slug returns "author/name".
func (v Val) Slug() string {
	return v.Author.Username + "/" + v.Name
}

// Link returns the val's page on the website.
func (v Val) Link() string {
	return WebURL + "/v/" + v.Slug()
}

// User is an account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bio      string `json:"bio,omitempty"`
	Email    string `json:"email,omitempty"`
	Tier     string `json:"tier,omitempty"`
}

// CreateValRequest is the body of POST /v1/vals.
type CreateValRequest struct {
	Name    string `json:"name,omitempty"`
	Code    string `json:"code"`
	Privacy string `json:"privacy,omitempty"`
	Readme  string `json:"readme,omitempty"`
}

// UpdateValRequest is the body of PUT /v1/vals/{id}. Nil fields are left unchanged.
type UpdateValRequest struct {
	Name    *string `json:"name,omitempty"`
	Privacy *string `json:"privacy,omitempty"`
	Readme  *string `json:"readme,omitempty"`
}

// DecodeVal decodes a val record, requiring id and name.
func DecodeVal(data []byte) (*Val, error) {
	var v Val
	if err := decodeRecord(data, &v, "id", "name"); err != nil {
		return nil, fmt.Errorf("val: %w", err)
	}
	return &v, nil
}

// DecodeUser decodes a user record, requiring id and username.
func DecodeUser(data []byte) (*User, error) {
	var u User
	if err := decodeRecord(data, &u, "id", "username"); err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}
	return &u, nil
}

func decodeVals(items []json.RawMessage) ([]Val, error) {
	vals := make([]Val, 0, len(items))
	for _, item := range items {
		v, err := DecodeVal(item)
		if err != nil {
			return nil, err
		}
		vals = append(vals, *v)
	}
	return vals, nil
}

func (c *Client) getVal(ctx context.Context, path string) (*Val, error) {
	data, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return DecodeVal(data)
}

func (c *Client) getUser(ctx context.Context, path string) (*User, error) {
	data, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return DecodeUser(data)
}

// CurrentUser returns the account that owns the token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	return c.getUser(ctx, "/v1/me")
}

// UserByAlias looks up a user by username.
func (c *Client) UserByAlias(ctx context.Context, username string) (*User, error) {
	return c.getUser(ctx, "/v1/alias/"+url.PathEscape(username))
}

// ValByAlias looks up a val by author username and val name.
func (c *Client) ValByAlias(ctx context.Context, author, name string) (*Val, error) {
	return c.getVal(ctx, "/v1/alias/"+url.PathEscape(author)+"/"+url.PathEscape(name))
}

// GetVal fetches a val by id.
func (c *Client) GetVal(ctx context.Context, id string) (*Val, error) {
	return c.getVal(ctx, "/v1/vals/"+url.PathEscape(id))
}

// CreateVal creates a val with the given name and code.
func (c *Client) CreateVal(ctx context.Context, name, code string) (*Val, error) {
	return c.CreateValWith(ctx, CreateValRequest{Name: name, Code: code})
}

// CreateValWith creates a val from a full request.
func (c *Client) CreateValWith(ctx context.Context, req CreateValRequest) (*Val, error) {
	data, err := c.call(ctx, http.MethodPost, "/v1/vals", req)
	if err != nil {
		return nil, err
	}
	return DecodeVal(data)
}

// UpdateVal changes a val's name, privacy or readme.
func (c *Client) UpdateVal(ctx context.Context, id string, req UpdateValRequest) error {
	_, err := c.call(ctx, http.MethodPut, "/v1/vals/"+url.PathEscape(id), req)
	return err
}

// CreateVersion pushes code as a new version of the val.
func (c *Client) CreateVersion(ctx context.Context, id, code string) error {
	body := struct {
		Code string `json:"code"`
	}{Code: code}
	_, err := c.call(ctx, http.MethodPost, "/v1/vals/"+url.PathEscape(id)+"/versions", body)
	return err
}

// DeleteVal deletes a val.
func (c *Client) DeleteVal(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodDelete, "/v1/vals/"+url.PathEscape(id), nil)
	return err
}

// ListUserVals returns every val owned by userID, following pagination to the end.
func (c *Client) ListUserVals(ctx context.Context, userID string) ([]Val, error) {
	first := withQuery("/v1/users/"+url.PathEscape(userID)+"/vals", url.Values{
		"limit": {strconv.Itoa(listPageSize)},
	})
	items, err := c.drain(ctx, first)
	if err != nil {
		return nil, fmt.Errorf("list vals: %w", err)
	}
	return decodeVals(items)
}

// ListUserValsPage returns the first page of userID's vals.
func (c *Client) ListUserValsPage(ctx context.Context, userID string, limit int) ([]Val, error) {
	path := withQuery("/v1/users/"+url.PathEscape(userID)+"/vals", url.Values{
		"limit": {strconv.Itoa(limit)},
	})
	return c.valsPage(ctx, path)
}

// SearchVals runs a full-text search and returns the first page of matches.
func (c *Client) SearchVals(ctx context.Context, query string, limit int) ([]Val, error) {
	path := withQuery("/v1/search/vals", url.Values{
		"query": {query},
		"limit": {strconv.Itoa(limit)},
	})
	return c.valsPage(ctx, path)
}

func (c *Client) valsPage(ctx context.Context, path string) ([]Val, error) {
	data, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	p, err := decodePage(data)
	if err != nil {
		return nil, err
	}
	return decodeVals(p.Data)
}
