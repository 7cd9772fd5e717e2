package cli

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pomdtr/vt/internal/api"
	"github.com/pomdtr/vt/internal/ui"
)

var (
	openapiWeb  bool
	openapiJSON bool
)

var openapiCmd = &cobra.Command{
	Use:    "openapi",
	Short:  "Print the API's OpenAPI document",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if openapiWeb {
			return openInBrowser(api.OpenAPIDocsURL)
		}

		// The document is public; no token needed.
		client := api.New(api.Config{
			HTTPClient: &http.Client{Timeout: getConfig().Timeout()},
			UserAgent:  "vt/" + currentVersionInfo().Version,
			Logger:     getLogger(),
		})
		doc, err := client.OpenAPISpec(cmd.Context())
		if err != nil {
			return err
		}

		tty := ui.NewDisplayContext().IsTTY
		if openapiJSON {
			data, err := ui.YAMLToJSON(doc)
			if err != nil {
				return err
			}
			return ui.WriteRawJSON(cmd.OutOrStdout(), data, tty)
		}
		return ui.WriteYAMLDocument(cmd.OutOrStdout(), doc, tty)
	},
}

func init() {
	openapiCmd.Flags().BoolVarP(&openapiWeb, "web", "w", false, "Open the API reference in the browser")
	openapiCmd.Flags().BoolVar(&openapiJSON, "json", false, "Convert the document to JSON")
	openapiCmd.MarkFlagsMutuallyExclusive("web", "json")
	rootCmd.AddCommand(openapiCmd)
}
