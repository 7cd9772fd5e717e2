package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pomdtr/vt/internal/api"
	"github.com/pomdtr/vt/internal/envfile"
	"github.com/pomdtr/vt/internal/ui"
)

var (
	evalArgs string
	envJSON  bool
)

var evalCmd = &cobra.Command{
	Use:   "eval [expression]",
	Short: "Evaluate an expression remotely",
	Long: `Evaluate a TypeScript expression remotely and print the JSON result.

The expression is read from stdin when not given as an argument.`,
	Example: `  vt eval '1 + 1'
  vt eval '(a, b) => a + b' --args '[1, 2]'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		display := ui.NewDisplayContext()

		var code string
		if len(args) == 1 {
			code = args[0]
		} else {
			if display.StdinIsTTY {
				return fmt.Errorf("expression is required")
			}
			var err error
			if code, err = readStdin(); err != nil {
				return err
			}
		}

		var callArgs []any
		if evalArgs != "" {
			if err := json.Unmarshal([]byte(evalArgs), &callArgs); err != nil {
				return fmt.Errorf("--args must be a JSON array: %w", err)
			}
		}

		s, err := newSession()
		if err != nil {
			return err
		}
		raw, err := s.client.Eval(cmd.Context(), code, callArgs)
		if err != nil {
			return err
		}
		return ui.WriteRawJSON(cmd.OutOrStdout(), raw, display.IsTTY)
	},
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print your environment variables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		env, err := s.client.Env(cmd.Context())
		if err != nil {
			return err
		}
		if envJSON {
			return ui.WriteJSON(cmd.OutOrStdout(), env, ui.NewDisplayContext().IsTTY)
		}
		kept, skipped := envfile.Portable(env)
		for _, key := range skipped {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Warningf("Skipped %s: not representable in a dotenv file (use --json)", key))
		}
		fmt.Fprint(cmd.OutOrStdout(), envfile.Marshal(kept))
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run <val> [args...]",
	Short: "Run a val's default export as a command",
	Long: `Run a val's default export with {args, stdin} and map its reply to this process.

A string reply is printed to stdout. An object reply may carry stdout, stderr
and an exit code.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		ref, err := parseValRef(args[0])
		if err != nil {
			return err
		}
		if ref, err = s.resolveAuthor(ctx, ref); err != nil {
			return err
		}

		input := api.RunInput{Args: args[1:]}
		if input.Args == nil {
			input.Args = []string{}
		}
		if !ui.NewDisplayContext().StdinIsTTY {
			if input.Stdin, err = readStdin(); err != nil {
				return err
			}
		}

		out, err := s.client.Run(ctx, ref.Author, ref.Name, input)
		if err != nil {
			return err
		}
		writeRunOutput(cmd, out)
		if out.Code != 0 {
			closeLogger()
			os.Exit(out.Code)
		}
		return nil
	},
}

func writeRunOutput(cmd *cobra.Command, out *api.RunOutput) {
	if out.Stdout != "" {
		fmt.Fprint(cmd.OutOrStdout(), withNewline(out.Stdout))
	}
	if out.Stderr != "" {
		fmt.Fprint(cmd.ErrOrStderr(), withNewline(out.Stderr))
	}
}

func withNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func init() {
	evalCmd.Flags().StringVar(&evalArgs, "args", "", "Arguments as a JSON array, when the expression is a function")
	envCmd.Flags().BoolVar(&envJSON, "json", false, "Output as JSON")
	runCmd.Flags().SetInterspersed(false)

	rootCmd.AddCommand(evalCmd, envCmd, runCmd)
}
