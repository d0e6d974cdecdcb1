package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/churnboard/internal/dataset"
	"github.com/KaramelBytes/churnboard/internal/utils"
)

var (
	inspectOutput string
	inspectFormat string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize the cleaned dataset (schema, ranges, category counts)",
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, err := loadTable()
		if err != nil {
			return err
		}
		p := dataset.Summarize(tbl)
		var out []byte
		switch strings.ToLower(inspectFormat) {
		case "", "markdown", "md":
			out = []byte(p.Markdown())
		case "json":
			if out, err = utils.PrettyJSON(p); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported format: %s (use markdown|json)", inspectFormat)
		}
		if inspectOutput != "" {
			if err := utils.SafeWriteFile(inspectOutput, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote summary to %s\n", inspectOutput)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspectOutput, "output", "o", "", "write the summary to a file")
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "markdown", "output format: markdown|json")
}
