package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pomdtr/vt/internal/api"
	"github.com/pomdtr/vt/internal/atomicfile"
	"github.com/pomdtr/vt/internal/ui"
)

var (
	blobListPrefix string
	blobListJSON   bool
)

var blobCmd = &cobra.Command{
	Use:   "blob",
	Short: "Manage blobs",
}

var blobListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List blobs",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		blobs, err := s.client.ListBlobs(cmd.Context(), blobListPrefix)
		if err != nil {
			return err
		}

		display := ui.NewDisplayContext()
		if blobListJSON {
			return ui.WriteJSON(cmd.OutOrStdout(), blobs, display.IsTTY)
		}
		printRows(cmd.OutOrStdout(), []string{"key", "size", "last modified"}, blobRows(blobs, display.IsTTY))
		return nil
	},
}

// blobRows formats sizes and dates for people on a terminal and exactly for pipes.
func blobRows(blobs []api.Blob, human bool) [][]string {
	rows := make([][]string, 0, len(blobs))
	for _, b := range blobs {
		size := fmt.Sprint(b.Size)
		modified := b.LastModified
		if human {
			size = humanize.Bytes(uint64(b.Size))
			if t, err := time.Parse(time.RFC3339, b.LastModified); err == nil {
				modified = humanize.Time(t)
			}
		}
		rows = append(rows, []string{b.Key, size, modified})
	}
	return rows
}

var blobDownloadCmd = &cobra.Command{
	Use:   "download <key> [path]",
	Short: "Download a blob to a file, or stdout with - or no path",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		body, err := s.client.GetBlob(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer body.Close()

		if len(args) == 1 || args[1] == "-" {
			_, err := io.Copy(cmd.OutOrStdout(), body)
			return err
		}

		data, err := io.ReadAll(body)
		if err != nil {
			return fmt.Errorf("read blob %s: %w", args[0], err)
		}
		if err := atomicfile.WriteFile(args[1], data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", args[1], err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Successf("Downloaded %s to %s", args[0], ui.FilePath(args[1])))
		return nil
	},
}

var blobUploadCmd = &cobra.Command{
	Use:   "upload <path|-> <key>",
	Short: "Upload a file, or stdin with -, as a blob",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}

		var r io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		if err := s.client.PutBlob(cmd.Context(), args[1], r); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Successf("Uploaded %s", args[1]))
		return nil
	},
}

var blobDeleteCmd = &cobra.Command{
	Use:     "delete <key>",
	Aliases: []string{"rm"},
	Short:   "Delete a blob",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		if err := s.client.DeleteBlob(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Successf("Deleted %s", args[0]))
		return nil
	},
}

func init() {
	blobListCmd.Flags().StringVarP(&blobListPrefix, "prefix", "p", "", "Only list keys with this prefix")
	blobListCmd.Flags().BoolVar(&blobListJSON, "json", false, "Output as JSON")

	blobCmd.AddCommand(blobListCmd, blobDownloadCmd, blobUploadCmd, blobDeleteCmd)
	rootCmd.AddCommand(blobCmd)
}
