package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pomdtr/vt/internal/ui"
)

var queryJSON bool

var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run a SQL statement against your database",
	Long: `Run a SQL statement against your database.

Results are shown as a table on a terminal and as JSON when piped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		res, err := s.client.Execute(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		display := ui.NewDisplayContext()
		if queryJSON || !display.IsTTY {
			return ui.WriteJSON(cmd.OutOrStdout(), res, display.IsTTY)
		}
		if len(res.Columns) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Success(ui.Count(int(res.RowsAffected), "row affected", "rows affected")))
			return nil
		}

		rows := make([][]string, 0, len(res.Rows))
		for _, row := range res.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = formatCell(v)
			}
			rows = append(rows, cells)
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderTable(res.Columns, rows))
		return nil
	},
}

// formatCell renders a decoded JSON value for a table cell.
func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Output as JSON even on a terminal")
	rootCmd.AddCommand(queryCmd)
}
