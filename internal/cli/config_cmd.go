package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pomdtr/vt/internal/config"
	"github.com/pomdtr/vt/internal/ui"
)

var configShowJSON bool

// configKeys maps dotted keys to accessors on Config.
var configKeys = map[string]struct {
	get func(*config.Config) string
	set func(*config.Config, string) error
}{
	"token": {
		get: func(c *config.Config) string { return redact(c.Token) },
		set: func(c *config.Config, v string) error { c.Token = v; return nil },
	},
	"api_url": {
		get: func(c *config.Config) string { return c.APIURL },
		set: func(c *config.Config, v string) error { c.APIURL = v; return nil },
	},
	"editor": {
		get: func(c *config.Config) string { return c.Editor },
		set: func(c *config.Config, v string) error { c.Editor = v; return nil },
	},
	"timeout_seconds": {
		get: func(c *config.Config) string {
			if c.TimeoutSeconds == 0 {
				return ""
			}
			return strconv.Itoa(c.TimeoutSeconds)
		},
		set: func(c *config.Config, v string) error {
			if v == "" {
				c.TimeoutSeconds = 0
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("timeout_seconds must be a non-negative integer, got %q", v)
			}
			c.TimeoutSeconds = n
			return nil
		},
	},
	"sync.dir": {
		get: func(c *config.Config) string { return c.Sync.Dir },
		set: func(c *config.Config, v string) error { c.Sync.Dir = v; return nil },
	},
	"sync.extension": {
		get: func(c *config.Config) string { return c.Sync.Extension },
		set: func(c *config.Config, v string) error { c.Sync.Extension = strings.TrimPrefix(v, "."); return nil },
	},
	"sync.env_file": {
		get: func(c *config.Config) string { return c.Sync.EnvFile },
		set: func(c *config.Config, v string) error { c.Sync.EnvFile = v; return nil },
	},
	"ui.accent": {
		get: func(c *config.Config) string { return c.UI.Accent },
		set: func(c *config.Config, v string) error {
			if v != "" {
				if _, ok := ui.NormalizeAccentColor(v); !ok {
					return fmt.Errorf("invalid accent %q: use an ANSI code (0-255) or #RRGGBB", v)
				}
			}
			c.UI.Accent = v
			return nil
		},
	},
	"ui.code_theme": {
		get: func(c *config.Config) string { return c.UI.CodeTheme },
		set: func(c *config.Config, v string) error { c.UI.CodeTheme = v; return nil },
	},
	"log.level": {
		get: func(c *config.Config) string { return c.Log.Level },
		set: func(c *config.Config, v string) error {
			switch strings.ToLower(v) {
			case "", "debug", "info", "warn", "error", "fatal":
				c.Log.Level = strings.ToLower(v)
				return nil
			}
			return fmt.Errorf("invalid log level %q", v)
		},
	},
	"log.file": {
		get: func(c *config.Config) string { return c.Log.File },
		set: func(c *config.Config, v string) error { c.Log.File = v; return nil },
	},
}

func redact(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "…" + token[len(token)-4:]
}

func sortedConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func setConfigKey(c *config.Config, key, value string) error {
	k, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (known keys: %s)", key, strings.Join(sortedConfigKeys(), ", "))
	}
	return k.set(c, strings.TrimSpace(value))
}

// loadConfigForEdit reads the config file itself, not the merged view.
func loadConfigForEdit() (*config.Config, bool, error) {
	return config.LoadAllowMissing(resolvedConfigPath)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the config file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show config values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, exists, err := loadConfigForEdit()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		values := map[string]string{}
		for _, key := range sortedConfigKeys() {
			if v := configKeys[key].get(c); v != "" {
				values[key] = v
			}
		}
		if configShowJSON {
			return ui.WriteJSON(out, map[string]any{
				"path":   resolvedConfigPath,
				"exists": exists,
				"values": values,
			}, ui.NewDisplayContext().IsTTY)
		}

		if !exists {
			fmt.Fprintf(out, "Config file does not exist: %s\n", resolvedConfigPath)
			fmt.Fprintln(out, ui.Hint("Run 'vt config init' to create it."))
			return nil
		}
		fmt.Fprintf(out, "config: %s\n", ui.FilePath(resolvedConfigPath))
		for _, key := range sortedConfigKeys() {
			if v, ok := values[key]; ok {
				fmt.Fprintf(out, "%s: %s\n", key, v)
			}
		}
		if len(c.Sync.Ignore) > 0 {
			fmt.Fprintf(out, "sync.ignore: %s\n", strings.Join(c.Sync.Ignore, ", "))
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), resolvedConfigPath)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a commented config file if none exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.CreateDefaultAt(resolvedConfigPath)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Successf("Config file at %s", ui.FilePath(path)))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := loadConfigForEdit()
		if err != nil {
			return err
		}
		if err := setConfigKey(c, args[0], args[1]); err != nil {
			return err
		}
		if err := config.SaveTo(resolvedConfigPath, c); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Successf("Set %s", args[0]))
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, exists, err := loadConfigForEdit()
		if err != nil {
			return err
		}
		if err := setConfigKey(c, args[0], ""); err != nil {
			return err
		}
		if !exists {
			return nil
		}
		if err := config.SaveTo(resolvedConfigPath, c); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Successf("Unset %s", args[0]))
		return nil
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "Output as JSON")
	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd, configSetCmd, configUnsetCmd)
	rootCmd.AddCommand(configCmd)
}
