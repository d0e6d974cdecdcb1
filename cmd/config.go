package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/churnboard/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set churnboard configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "data_path: %s\n", cfg.DataPath)
		fmt.Fprintf(out, "category_column: %s\n", cfg.CategoryColumn)
		if cfg.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %q\n", cfg.Delimiter)
		}
		if cfg.Sheet != "" {
			fmt.Fprintf(out, "sheet: %s\n", cfg.Sheet)
		}
		fmt.Fprintf(out, "listen_addr: %s\n", cfg.ListenAddr)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "compute_timeout_ms: %d\n", cfg.ComputeTimeoutMs)
		keys := make([]string, 0, len(cfg.DefaultSelection))
		for k := range cfg.DefaultSelection {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "default_selection.%s: %s\n", k, cfg.DefaultSelection[k])
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := requireConfig()
		if err != nil {
			return err
		}
		switch {
		case key == "data_path":
			c.DataPath = val
		case key == "category_column":
			c.CategoryColumn = val
		case key == "delimiter":
			if _, err := parseDelimiter(val); err != nil {
				return err
			}
			c.Delimiter = val
		case key == "sheet":
			c.Sheet = val
		case key == "listen_addr":
			c.ListenAddr = val
		case key == "log_level":
			switch strings.ToUpper(val) {
			case "ERROR", "WARN", "INFO", "DEBUG":
				c.LogLevel = strings.ToUpper(val)
			default:
				return fmt.Errorf("invalid log_level: %s (use ERROR|WARN|INFO|DEBUG)", val)
			}
		case key == "compute_timeout_ms":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for compute_timeout_ms: %v", val)
			}
			c.ComputeTimeoutMs = i
		case strings.HasPrefix(key, "default_selection."):
			dim := strings.TrimPrefix(key, "default_selection.")
			if dim == "" {
				return fmt.Errorf("missing dimension in key: %s", key)
			}
			if c.DefaultSelection == nil {
				c.DefaultSelection = map[string]string{}
			}
			c.DefaultSelection[dim] = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
