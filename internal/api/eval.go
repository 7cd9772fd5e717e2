package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	// envExpression evaluates to the remote process environment.
	envExpression = "Deno.env.toObject()"

	OpenAPIURL     = "https://www.val.town/docs/openapi.yaml"
	OpenAPIDocsURL = "https://www.val.town/docs/openapi.html"
)

// Eval evaluates code remotely and returns the JSON result verbatim.
func (c *Client) Eval(ctx context.Context, code string, args []any) (json.RawMessage, error) {
	body := struct {
		Code string `json:"code"`
		Args []any  `json:"args,omitempty"`
	}{Code: code, Args: args}
	data, err := c.call(ctx, http.MethodPost, "/v1/eval", body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("eval: %w: invalid JSON", ErrDecode)
	}
	return json.RawMessage(data), nil
}

// Env returns the remote environment variables.
func (c *Client) Env(ctx context.Context) (map[string]string, error) {
	raw, err := c.Eval(ctx, envExpression, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch env: %w", err)
	}
	var env map[string]string
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("env: %w: %w", ErrDecode, err)
	}
	if env == nil {
		return nil, fmt.Errorf("env: %w: expected an object", ErrDecode)
	}
	return env, nil
}

// RunInput is passed as the single argument to a val's default export by `vt run`.
type RunInput struct {
	Args  []string `json:"args"`
	Stdin string   `json:"stdin,omitempty"`
}

// RunOutput is what a CLI-style val returns.
type RunOutput struct {
	Stdout string `json:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty"`
	Code   int    `json:"code,omitempty"`
}

// ModuleURL is the import URL of a val's module.
func ModuleURL(author, name string) string {
	return "https://esm.town/v/" + author + "/" + name
}

// Run imports the val's default export, calls it with input and decodes the reply.
// A bare string reply is returned as Stdout.
func (c *Client) Run(ctx context.Context, author, name string, input RunInput) (*RunOutput, error) {
	code := fmt.Sprintf("(await import(%q)).default", ModuleURL(author, name))
	raw, err := c.Eval(ctx, code, []any{input})
	if err != nil {
		return nil, err
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return &RunOutput{Stdout: text}, nil
	}
	var out RunOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("run: %w: %w", ErrDecode, err)
	}
	return &out, nil
}

// OpenAPISpec downloads the public OpenAPI document (YAML). It is fetched
// without credentials since it lives on the website, not the API host.
func (c *Client) OpenAPISpec(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, OpenAPIURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download openapi spec: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openapi spec: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Method:     http.MethodGet,
			URL:        OpenAPIURL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(data),
		}
	}
	return data, nil
}

// Email is the body of POST /v1/email. Empty To sends to the account owner.
type Email struct {
	To      string `json:"to,omitempty"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// SendEmail sends an email from the account.
func (c *Client) SendEmail(ctx context.Context, email Email) error {
	_, err := c.call(ctx, http.MethodPost, "/v1/email", email)
	return err
}
