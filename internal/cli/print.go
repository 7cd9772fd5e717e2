package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Print resolved settings",
}

var printTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print the API token vt would use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := getConfig().ResolveToken(tokenFlag)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var printAPIURLCmd = &cobra.Command{
	Use:   "api-url",
	Short: "Print the API base URL vt would use",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), getConfig().ResolveAPIURL())
	},
}

func init() {
	printCmd.AddCommand(printTokenCmd, printAPIURLCmd)
	rootCmd.AddCommand(printCmd)
}
