package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goslug "github.com/gosimple/slug"
	"github.com/spf13/cobra"

	"github.com/pomdtr/vt/internal/atomicfile"
	"github.com/pomdtr/vt/internal/shellquote"
	"github.com/pomdtr/vt/internal/ui"
)

var (
	installName  string
	installForce bool
)

var errShimExists = errors.New("already exists (use --force to overwrite)")

var installCmd = &cobra.Command{
	Use:   "install <val>",
	Short: "Install a val as a command in ~/.local/bin",
	Long: `Install a val as a command in ~/.local/bin.

The installed script runs 'vt run <val>' with its arguments and stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := parseValRef(args[0])
		if err != nil {
			return err
		}
		name := installName
		if name == "" {
			name = ref.Name
		}

		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locate home directory: %w", err)
		}
		path, err := installShim(filepath.Join(home, ".local", "bin"), name, args[0], installForce)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Successf("Installed %s to %s", filepath.Base(path), ui.FilePath(path)))
		return nil
	},
}

// shimScript is the shell script that forwards to `vt run`.
func shimScript(val string) string {
	return "#!/bin/sh\n\nexec vt run " + shellquote.QuoteIfNeeded(val) + " \"$@\"\n"
}

// installShim writes an executable shim for val into binDir under a slugged name.
func installShim(binDir, name, val string, force bool) (string, error) {
	file := goslug.Make(name)
	if file == "" {
		return "", fmt.Errorf("invalid command name %q", name)
	}
	path := filepath.Join(binDir, file)

	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s %w", path, errShimExists)
	}
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", binDir, err)
	}
	if err := atomicfile.WriteFile(path, []byte(shimScript(val)), 0o755); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func init() {
	installCmd.Flags().StringVarP(&installName, "name", "n", "", "Command name (defaults to the val name)")
	installCmd.Flags().BoolVarP(&installForce, "force", "f", false, "Overwrite an existing command")
	rootCmd.AddCommand(installCmd)
}
