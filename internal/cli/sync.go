package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pomdtr/vt/internal/lockfile"
	"github.com/pomdtr/vt/internal/ui"
	"github.com/pomdtr/vt/internal/workspace"
)

var (
	syncDir   string
	syncYes   bool
	syncNo    bool
	syncWatch bool
	syncDiff  bool
	syncPoll  time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Two-way sync a directory of val files with your account",
	Long: `Two-way sync a directory of val files with your account.

Local changes are pushed first, then deleted files are offered for remote
deletion, then remote changes are pulled and the env file is refreshed.
When a val changed on both sides, the local version wins.

The directory must hold a vt.lock file; create one with 'vt sync init'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		opts := syncOptions(s, workspaceDir(syncDir), confirmFunc(syncYes, syncNo))
		if syncDiff {
			opts.Preview = func(file, local, remote string) {
				fmt.Fprintln(cmd.ErrOrStderr(), ui.Header(file))
				fmt.Fprint(cmd.ErrOrStderr(), ui.Diff(local, remote))
			}
		}

		if syncWatch {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Infof("Watching %s (Ctrl+C to stop)", ui.FilePath(opts.ScriptsDir)))
			err := workspace.Watch(cmd.Context(), opts, workspace.WatchConfig{
				Poll: syncPoll,
				OnSync: func(res *workspace.Result, err error) {
					if err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), ui.Error(err.Error()))
						return
					}
					if !res.Empty() {
						fmt.Fprint(cmd.OutOrStdout(), formatSyncResult(res))
					}
				},
			})
			if err != nil && cmd.Context().Err() != nil {
				return nil
			}
			return hintMissingLock(err, opts.ScriptsDir)
		}

		res, err := workspace.Sync(cmd.Context(), opts)
		if err != nil {
			return hintMissingLock(err, opts.ScriptsDir)
		}
		printSyncResult(cmd.OutOrStdout(), res)
		return nil
	},
}

var syncInitCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Prepare a directory for syncing",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := workspaceDir(dirArg(args))
		lockPath, err := workspace.Init(dir, getConfig().Sync.ExtensionOrDefault())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Successf("Initialized workspace %s", ui.FilePath(lockPath)))
		fmt.Fprintln(cmd.OutOrStdout(), ui.Hint("Run 'vt sync' in it to pull your vals."))
		return nil
	},
}

var syncCloneCmd = &cobra.Command{
	Use:   "clone [dir]",
	Short: "Initialize a directory and pull every val into it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		dir := workspaceDir(dirArg(args))
		if _, err := workspace.Init(dir, getConfig().Sync.ExtensionOrDefault()); err != nil {
			return err
		}

		spinner := ui.NewSpinner("Pulling vals...")
		spinner.Start()
		res, err := workspace.Sync(cmd.Context(), syncOptions(s, dir, workspace.AutoAccept))
		spinner.Stop()
		if err != nil {
			return err
		}
		printSyncResult(cmd.OutOrStdout(), res)
		return nil
	},
}

// workspaceDir returns dir, or the configured workspace when empty.
func workspaceDir(dir string) string {
	if strings.TrimSpace(dir) != "" {
		return dir
	}
	return getConfig().Sync.DirOrDefault()
}

// dirArg prefers a positional directory over --dir.
func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return syncDir
}

func syncOptions(s *session, dir string, confirm workspace.ConfirmFunc) workspace.Options {
	c := getConfig()
	opts := workspace.Layout(dir, c.Sync.ExtensionOrDefault(), c.Sync.EnvFileOrDefault())
	opts.Ignore = c.Sync.Ignore
	opts.Remote = s.client
	opts.Confirm = confirm
	opts.Logger = getLogger()
	return opts
}

func hintMissingLock(err error, dir string) error {
	if errors.Is(err, lockfile.ErrMissing) {
		return fmt.Errorf("%w\n\nRun 'vt sync init %s' to create it", err, dir)
	}
	return err
}

var changeVerbs = map[workspace.ChangeKind]string{
	workspace.Created:   "Created",
	workspace.Pushed:    "Pushed",
	workspace.Deleted:   "Deleted",
	workspace.Pulled:    "Pulled",
	workspace.Updated:   "Updated",
	workspace.Renamed:   "Renamed",
	workspace.Forgotten: "Forgot",
	workspace.Declined:  "Skipped",
	workspace.Skipped:   "Skipped",
}

// formatSyncResult renders one status line per change.
func formatSyncResult(res *workspace.Result) string {
	var sb strings.Builder
	for _, c := range res.Changes {
		msg := changeVerbs[c.Kind] + " " + c.File
		if c.Detail != "" {
			msg += " " + ui.Hint("("+c.Detail+")")
		}
		switch c.Kind {
		case workspace.Declined:
			sb.WriteString(ui.Info(msg))
		case workspace.Skipped, workspace.Forgotten:
			sb.WriteString(ui.Warning(msg))
		default:
			sb.WriteString(ui.Success(msg))
		}
		sb.WriteByte('\n')
	}
	if res.EnvUpdated {
		sb.WriteString(ui.Success("Updated env file"))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func printSyncResult(w io.Writer, res *workspace.Result) {
	if len(res.Changes) == 0 && !res.EnvUpdated {
		fmt.Fprintln(w, ui.Success("Already in sync"))
		return
	}
	fmt.Fprint(w, formatSyncResult(res))
}

func init() {
	syncCmd.PersistentFlags().StringVarP(&syncDir, "dir", "d", "", "Workspace directory (defaults to sync.dir in the config, then .)")
	syncCmd.Flags().BoolVarP(&syncYes, "yes", "y", false, "Answer yes to every prompt")
	syncCmd.Flags().BoolVarP(&syncNo, "no", "n", false, "Answer no to every prompt")
	syncCmd.Flags().BoolVarP(&syncWatch, "watch", "w", false, "Keep syncing when files change")
	syncCmd.Flags().DurationVar(&syncPoll, "poll", 0, "With --watch, also sync on this interval to pick up remote changes")
	syncCmd.Flags().BoolVar(&syncDiff, "diff", false, "Show a diff before each remote update prompt")
	syncCmd.MarkFlagsMutuallyExclusive("yes", "no")

	syncCmd.AddCommand(syncInitCmd, syncCloneCmd)
	rootCmd.AddCommand(syncCmd)
}
