package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/churnboard/internal/dashboard"
	"github.com/KaramelBytes/churnboard/internal/filter"
	"github.com/KaramelBytes/churnboard/internal/utils"
	"github.com/KaramelBytes/churnboard/internal/views"
)

var (
	queryFilters      []string
	queryMoreInsights int
	queryViews        []string
	queryFormat       string
	queryOutput       string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Compute dashboard views for one filter selection",
	Long: `Opens a single dashboard session, applies --filter selections and --more-insights
triggers, and prints every view (or only --view ones).

Examples:
  churnboard query --filter gender=Female
  churnboard query --filter gender=Male --filter Contract=Two\ year --more-insights 1 --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := parseFilters(queryFilters)
		if err != nil {
			return err
		}
		if queryMoreInsights < 0 {
			return fmt.Errorf("--more-insights must be >= 0")
		}
		d, err := loadDashboard()
		if err != nil {
			return err
		}
		sess, rep, err := d.NewSession(cmd.Context(), sel)
		if err != nil {
			return err
		}
		for i := 0; i < queryMoreInsights; i++ {
			r, err := sess.Trigger(cmd.Context(), dashboard.MoreInsights)
			if err != nil {
				return err
			}
			for id, e := range r.Errors {
				if rep.Errors == nil {
					rep.Errors = map[string]error{}
				}
				rep.Errors[id] = e
			}
		}
		if err := rep.Err(); err != nil {
			log.Warn("views failed", zap.Error(err))
		}

		in, entries := sess.Snapshot()
		entries, err = pickViews(entries, queryViews)
		if err != nil {
			return err
		}

		var out []byte
		switch strings.ToLower(queryFormat) {
		case "", "markdown", "md":
			out = []byte(dashboard.Markdown(in, entries))
		case "json":
			payload := struct {
				Inputs views.Inputs  `json:"inputs"`
				Views  []views.Entry `json:"views"`
			}{in, entries}
			if out, err = utils.PrettyJSON(payload); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported format: %s (use markdown|json)", queryFormat)
		}
		if queryOutput != "" {
			if err := utils.SafeWriteFile(queryOutput, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d views to %s\n", len(entries), queryOutput)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

// parseFilters turns repeated dim=value flags into a selection.
func parseFilters(raw []string) (filter.Selection, error) {
	sel := filter.Selection{}
	for _, f := range raw {
		dim, val, ok := strings.Cut(f, "=")
		dim = strings.TrimSpace(dim)
		if !ok || dim == "" {
			return nil, fmt.Errorf("invalid --filter %q (want dim=value)", f)
		}
		sel[dim] = strings.TrimSpace(val)
	}
	return sel, nil
}

func pickViews(entries []views.Entry, ids []string) ([]views.Entry, error) {
	if len(ids) == 0 {
		return entries, nil
	}
	byID := make(map[string]views.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	out := make([]views.Entry, 0, len(ids))
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown view: %s", id)
		}
		out = append(out, e)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringArrayVar(&queryFilters, "filter", nil, "filter selection dim=value (repeatable; value All clears)")
	queryCmd.Flags().IntVar(&queryMoreInsights, "more-insights", 0, "number of times to fire the more_insights trigger")
	queryCmd.Flags().StringSliceVar(&queryViews, "view", nil, "only print these view ids")
	queryCmd.Flags().StringVar(&queryFormat, "format", "markdown", "output format: markdown|json")
	queryCmd.Flags().StringVarP(&queryOutput, "output", "o", "", "write the result to a file")
}
