package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/browser"

	"github.com/pomdtr/vt/internal/api"
	"github.com/pomdtr/vt/internal/editor"
	"github.com/pomdtr/vt/internal/ui"
)

// readInput returns text from $EDITOR when stdin is a terminal, otherwise
// everything piped on stdin.
func readInput(ctx context.Context, initial, ext string) (string, error) {
	if ui.NewDisplayContext().StdinIsTTY {
		return editor.New(getConfig().GetEditor()).Edit(ctx, initial, ext)
	}
	return readStdin()
}

func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// openInBrowser opens url, printing it when no browser is available.
func openInBrowser(url string) error {
	if err := browser.OpenURL(url); err != nil {
		getLogger().Debug("open browser", "err", err)
		fmt.Println(url)
	}
	return nil
}

// valRows turns vals into slug/version/link rows.
func valRows(vals []api.Val) [][]string {
	rows := make([][]string, 0, len(vals))
	for _, v := range vals {
		rows = append(rows, []string{v.Slug(), fmt.Sprintf("v%d", v.Version), v.Link()})
	}
	return rows
}

// printRows writes a table on a terminal and tab-separated lines otherwise.
func printRows(w io.Writer, headers []string, rows [][]string) {
	if ui.NewDisplayContext().IsTTY {
		fmt.Fprint(w, ui.RenderTable(headers, rows))
		return
	}
	fmt.Fprint(w, ui.TSV(rows))
}
