package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/meritorder/core/results"
	"github.com/kilianp07/meritorder/infra/logger"
)

var (
	historyScenario string
	historySince    time.Duration
	historyShortage bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded calculation runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyScenario, "scenario", "", "only runs of this scenario")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "only runs newer than this duration, e.g. 24h")
	historyCmd.Flags().BoolVar(&historyShortage, "shortage", false, "only runs with unmet demand")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	_, svc, err := newService()
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	q := results.Query{Scenario: historyScenario, ShortageOnly: historyShortage}
	if historySince > 0 {
		q.Start = time.Now().Add(-historySince)
	}
	recs, err := svc.History(cmd.Context(), q)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tRUN\tSCENARIO\tHORIZON\tSHORTAGE\tPRICE SETTERS")
	for _, r := range recs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.Timestamp.Format(time.RFC3339), r.ID, r.Scenario, r.Summary.Horizon,
			len(r.Summary.ShortageFrames), setterCounts(r))
	}
	return tw.Flush()
}

// setterCounts renders how often each dispatchable set the price, e.g. "gas:12 coal:3".
func setterCounts(r results.Record) string {
	parts := make([]string, 0, len(r.Summary.Dispatchables))
	for _, d := range r.Summary.Dispatchables {
		if d.PriceSettingFrames > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", d.Key, d.PriceSettingFrames))
		}
	}
	return strings.Join(parts, " ")
}
