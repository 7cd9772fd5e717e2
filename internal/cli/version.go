package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pomdtr/vt/internal/buildinfo"
	"github.com/pomdtr/vt/internal/ui"
)

const defaultModulePath = "github.com/pomdtr/vt"

type versionInfo struct {
	Version    string `json:"version"`
	ModulePath string `json:"module_path"`
	Commit     string `json:"commit,omitempty"`
	CommitTime string `json:"commit_time,omitempty"`
	Modified   bool   `json:"modified"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

var readBuildInfo = debug.ReadBuildInfo

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show vt version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentVersionInfo()
		out := cmd.OutOrStdout()

		if versionJSON {
			return ui.WriteJSON(out, info, ui.NewDisplayContext().IsTTY)
		}

		fmt.Fprintf(out, "vt %s\n", info.Version)
		rows := [][]string{{"module", info.ModulePath}}
		if info.Commit != "" {
			rows = append(rows, []string{"commit", info.Commit})
		}
		if info.CommitTime != "" {
			rows = append(rows, []string{"commit_time", info.CommitTime})
		}
		rows = append(rows,
			[]string{"go", info.GoVersion},
			[]string{"platform", info.Platform},
			[]string{"modified", fmt.Sprint(info.Modified)},
		)
		for _, row := range rows {
			fmt.Fprintf(out, "%s %s\n", ui.Muted.Render(row[0]+":"), row[1])
		}
		return nil
	},
}

// currentVersionInfo reads module build info, falling back to ldflags values
// for fields the toolchain did not record.
func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:    "devel",
		ModulePath: defaultModulePath,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi, ok := readBuildInfo(); ok && bi != nil {
		settings := make(map[string]string, len(bi.Settings))
		for _, s := range bi.Settings {
			settings[s.Key] = s.Value
		}
		if bi.Main.Path != "" {
			info.ModulePath = bi.Main.Path
		}
		if bi.GoVersion != "" {
			info.GoVersion = bi.GoVersion
		}
		if settings["GOOS"] != "" && settings["GOARCH"] != "" {
			info.Platform = settings["GOOS"] + "/" + settings["GOARCH"]
		}
		info.Version = normalizeVersion(bi.Main.Version)
		info.Commit = settings["vcs.revision"]
		info.CommitTime = settings["vcs.time"]
		info.Modified = strings.EqualFold(settings["vcs.modified"], "true")
	}

	if info.Version == "devel" && buildinfo.Version != "" {
		info.Version = normalizeVersion(buildinfo.Version)
	}
	if info.Commit == "" {
		info.Commit = buildinfo.Commit
	}
	if info.CommitTime == "" {
		info.CommitTime = buildinfo.Date
	}
	return info
}

func normalizeVersion(version string) string {
	if version == "" || version == "(devel)" {
		return "devel"
	}
	return version
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(versionCmd)
}
