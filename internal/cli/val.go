package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pomdtr/vt/internal/api"
	"github.com/pomdtr/vt/internal/ui"
)

var valHeaders = []string{"slug", "version", "link"}

var (
	valListUser  string
	valListLimit int
	valListJSON  bool

	valSearchLimit int

	valPrivacy string
	valReadme  string

	valEditReadme bool

	valViewWeb    bool
	valViewReadme bool
	valViewCode   bool
	valViewJSON   bool
)

var valCmd = &cobra.Command{
	Use:   "val",
	Short: "Manage vals",
}

var valListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List vals of a user",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var userID string
		if valListUser != "" {
			user, err := s.client.UserByAlias(ctx, strings.TrimPrefix(valListUser, "@"))
			if err != nil {
				return fmt.Errorf("user %s: %w", valListUser, err)
			}
			userID = user.ID
		} else {
			user, err := s.currentUser(ctx)
			if err != nil {
				return err
			}
			userID = user.ID
		}

		vals, err := s.client.ListUserValsPage(ctx, userID, valListLimit)
		if err != nil {
			return err
		}
		if valListJSON {
			return ui.WriteJSON(cmd.OutOrStdout(), vals, ui.NewDisplayContext().IsTTY)
		}
		printRows(cmd.OutOrStdout(), valHeaders, valRows(vals))
		return nil
	},
}

var valSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search public vals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		vals, err := s.client.SearchVals(cmd.Context(), args[0], valSearchLimit)
		if err != nil {
			return err
		}
		printRows(cmd.OutOrStdout(), valHeaders, valRows(vals))
		return nil
	},
}

var valCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a val from $EDITOR or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		code, err := readInput(ctx, "", "tsx")
		if err != nil {
			return err
		}
		req := api.CreateValRequest{Code: code, Privacy: valPrivacy, Readme: valReadme}
		if len(args) == 1 {
			req.Name = args[0]
		}
		val, err := s.client.CreateValWith(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Successf("Created val %s, available at %s", val.Name, ui.FilePath(val.Link())))
		return nil
	},
}

var valEditCmd = &cobra.Command{
	Use:   "edit <val>",
	Short: "Edit a val's code, readme or privacy",
	Long: `Edit a val in $EDITOR and push the result as a new version.

With --readme the readme is edited instead. With --privacy only the privacy
is changed. When stdin is not a terminal, the new content is read from it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		val, err := s.lookupVal(ctx, args[0])
		if err != nil {
			return err
		}

		if valPrivacy != "" {
			if val.Privacy == valPrivacy {
				fmt.Fprintln(cmd.ErrOrStderr(), ui.Info("No privacy changes."))
				return nil
			}
			privacy := valPrivacy
			if err := s.client.UpdateVal(ctx, val.ID, api.UpdateValRequest{Privacy: &privacy}); err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Successf("Updated val %s privacy to %s", val.Link(), privacy))
			return nil
		}

		if valEditReadme {
			readme, err := readInput(ctx, val.Readme, "md")
			if err != nil {
				return err
			}
			if err := s.client.UpdateVal(ctx, val.ID, api.UpdateValRequest{Readme: &readme}); err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Successf("Updated val %s readme", val.Link()))
			return nil
		}

		code, err := readInput(ctx, val.Code, "tsx")
		if err != nil {
			return err
		}
		if code == val.Code {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Info("No changes."))
			return nil
		}
		if err := s.client.CreateVersion(ctx, val.ID, code); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Successf("Updated val %s", val.Link()))
		return nil
	},
}

var valViewCmd = &cobra.Command{
	Use:     "view <val>",
	Aliases: []string{"cat"},
	Short:   "Print a val's code or readme",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		display := ui.NewDisplayContext()

		if valViewWeb {
			ref, err := parseValRef(args[0])
			if err != nil {
				return err
			}
			if ref, err = s.resolveAuthor(ctx, ref); err != nil {
				return err
			}
			return openInBrowser(api.Val{Name: ref.Name, Author: api.Author{Username: ref.Author}}.Link())
		}

		val, err := s.lookupVal(ctx, args[0])
		if err != nil {
			return err
		}

		switch {
		case valViewJSON:
			return ui.WriteJSON(out, val, display.IsTTY)
		case valViewReadme:
			if !display.IsTTY {
				return ui.WriteCode(out, "markdown", val.Readme, false)
			}
			rendered, err := ui.RenderMarkdown(val.Readme, display.TermWidth)
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
			return nil
		default:
			return ui.WriteCode(out, "tsx", val.Code, display.IsTTY)
		}
	},
}

var valRenameCmd = &cobra.Command{
	Use:   "rename <val> <new-name>",
	Short: "Rename a val",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		val, err := s.lookupVal(ctx, args[0])
		if err != nil {
			return err
		}
		name := args[1]
		if err := s.client.UpdateVal(ctx, val.ID, api.UpdateValRequest{Name: &name}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Successf("Renamed %s to %s", val.Slug(), name))
		return nil
	},
}

var valDeleteCmd = &cobra.Command{
	Use:     "delete <val>",
	Aliases: []string{"rm"},
	Short:   "Delete a val",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		val, err := s.lookupVal(ctx, args[0])
		if err != nil {
			return err
		}
		if err := s.client.DeleteVal(ctx, val.ID); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Successf("Val %s deleted", val.Slug()))
		return nil
	},
}

func init() {
	valListCmd.Flags().StringVar(&valListUser, "user", "", "List vals of this user instead of yours")
	valListCmd.Flags().IntVar(&valListLimit, "limit", 10, "Maximum number of vals")
	valListCmd.Flags().BoolVar(&valListJSON, "json", false, "Output as JSON")

	valSearchCmd.Flags().IntVar(&valSearchLimit, "limit", 10, "Maximum number of results")

	valCreateCmd.Flags().StringVar(&valPrivacy, "privacy", "", "Privacy: public, unlisted or private")
	valCreateCmd.Flags().StringVar(&valReadme, "readme", "", "Readme content")

	valEditCmd.Flags().StringVar(&valPrivacy, "privacy", "", "Set privacy instead of editing code")
	valEditCmd.Flags().BoolVar(&valEditReadme, "readme", false, "Edit the readme instead of the code")

	valViewCmd.Flags().BoolVarP(&valViewWeb, "web", "w", false, "Open in the browser")
	valViewCmd.Flags().BoolVar(&valViewReadme, "readme", false, "Show the readme")
	valViewCmd.Flags().BoolVar(&valViewCode, "code", false, "Show the code (default)")
	valViewCmd.Flags().BoolVar(&valViewJSON, "json", false, "Output the val as JSON")
	valViewCmd.MarkFlagsMutuallyExclusive("readme", "code", "json", "web")

	valCmd.AddCommand(valListCmd, valSearchCmd, valCreateCmd, valEditCmd, valViewCmd, valRenameCmd, valDeleteCmd)
	rootCmd.AddCommand(valCmd)
}
