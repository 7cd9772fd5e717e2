package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pomdtr/vt/internal/sqldump"
	"github.com/pomdtr/vt/internal/ui"
)

var (
	tableImportName    string
	tableImportFromCSV string
	tableImportFromDB  string
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Manage SQLite tables",
}

var tableListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tables",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		names, err := s.client.Tables(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var tableDeleteCmd = &cobra.Command{
	Use:     "delete <table>",
	Aliases: []string{"drop"},
	Short:   "Drop a table",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		stmt := "DROP TABLE IF EXISTS " + sqldump.QuoteIdent(args[0])
		if _, err := s.client.Execute(cmd.Context(), stmt); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Successf("Table %s deleted", args[0]))
		return nil
	},
}

var tableImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Create a table from a CSV file or a local SQLite database",
	Example: `  vt table import --from-csv people.csv
  vt table import --from-db local.db --table-name people`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		table := tableImportName

		var statements []string
		var err error
		switch {
		case tableImportFromCSV != "":
			if table == "" {
				table = tableNameFromPath(tableImportFromCSV)
			}
			statements, err = sqldump.FromCSVFile(ctx, tableImportFromCSV, table)
		case tableImportFromDB != "":
			if table == "" {
				return fmt.Errorf("--table-name is required with --from-db")
			}
			statements, err = sqldump.FromDB(ctx, tableImportFromDB, table)
		default:
			return fmt.Errorf("either --from-csv or --from-db is required")
		}
		if err != nil {
			return err
		}

		s, err := newSession()
		if err != nil {
			return err
		}
		if _, err := s.client.Batch(ctx, statements); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Successf("Imported table %s (%s)", table, ui.Count(len(statements), "statement", "statements")))
		return nil
	},
}

// tableNameFromPath names a table after a file: "data/people.csv" -> "people".
func tableNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func init() {
	tableImportCmd.Flags().StringVar(&tableImportName, "table-name", "", "Table name (defaults to the CSV file name)")
	tableImportCmd.Flags().StringVar(&tableImportFromCSV, "from-csv", "", "Create the table from a CSV file")
	tableImportCmd.Flags().StringVar(&tableImportFromDB, "from-db", "", "Copy the table from a SQLite database file")
	tableImportCmd.MarkFlagsMutuallyExclusive("from-csv", "from-db")

	tableCmd.AddCommand(tableListCmd, tableDeleteCmd, tableImportCmd)
	rootCmd.AddCommand(tableCmd)
}
