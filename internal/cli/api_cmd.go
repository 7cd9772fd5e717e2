package cli

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pomdtr/vt/internal/ui"
)

var (
	apiMethod  string
	apiData    string
	apiHeaders []string
)

var apiCmd = &cobra.Command{
	Use:   "api <path|url>",
	Short: "Make an authenticated API request",
	Example: `  vt api /me
  vt api /v1/vals -X POST -d '{"code": "export default 1"}'
  echo '{"statement": "select 1"}' | vt api /sqlite/execute -X POST -d @-`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		header, err := parseHeaders(apiHeaders)
		if err != nil {
			return err
		}

		var body io.Reader
		switch apiData {
		case "":
		case "@-":
			data, err := readStdin()
			if err != nil {
				return err
			}
			body = strings.NewReader(data)
		default:
			body = strings.NewReader(apiData)
		}
		if body != nil && header.Get("Content-Type") == "" {
			header.Set("Content-Type", "application/json")
		}

		s, err := newSession()
		if err != nil {
			return err
		}
		resp, err := s.client.Do(cmd.Context(), strings.ToUpper(apiMethod), normalizeAPIPath(args[0]), header, body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
			return ui.WriteRawJSON(cmd.OutOrStdout(), data, ui.NewDisplayContext().IsTTY)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// normalizeAPIPath turns "me" or "/me" into "/v1/me". Absolute URLs are kept.
func normalizeAPIPath(p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if p != "/v1" && !strings.HasPrefix(p, "/v1/") && !strings.HasPrefix(p, "/v1?") {
		p = "/v1" + p
	}
	return p
}

// parseHeaders parses "Key: Value" flags.
func parseHeaders(raw []string) (http.Header, error) {
	header := http.Header{}
	for _, h := range raw {
		key, value, ok := strings.Cut(h, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q: expected Key: Value", h)
		}
		header.Add(key, strings.TrimSpace(value))
	}
	return header, nil
}

func init() {
	apiCmd.Flags().StringVarP(&apiMethod, "method", "X", http.MethodGet, "HTTP method")
	apiCmd.Flags().StringVarP(&apiData, "data", "d", "", "Request body, or @- to read it from stdin")
	apiCmd.Flags().StringArrayVarP(&apiHeaders, "header", "H", nil, "Request header as Key: Value (repeatable)")
	rootCmd.AddCommand(apiCmd)
}
