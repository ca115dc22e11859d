package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/meritorder/app"
	"github.com/kilianp07/meritorder/infra/logger"
	"github.com/kilianp07/meritorder/pkg/export"
)

var (
	scenarioPaths []string
	exportDir     string
)

var runCmd = &cobra.Command{
	Use:   "run [scenario...]",
	Short: "Calculate the merit order of one or more scenarios",
	RunE:  runScenarios,
}

func init() {
	runCmd.Flags().StringArrayVarP(&scenarioPaths, "scenario", "s", nil, "scenario file (repeatable)")
	runCmd.Flags().StringVarP(&exportDir, "export", "o", "", "directory for per-frame CSV and summary JSON")
	rootCmd.AddCommand(runCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, svc, err := newService()
	if err != nil {
		return err
	}
	events := svc.Events()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if ev.Status == app.StatusFailed {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s failed: %v\n", ev.Scenario, ev.Err)
				continue
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s done in %s\n", ev.Scenario, ev.Duration)
		}
	}()
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
		<-done
	}()
	svc.StartMetrics(ctx)

	paths := append(append([]string{}, scenarioPaths...), args...)
	if len(paths) == 0 {
		paths = cfg.Scenarios
	}

	outs, err := svc.RunAll(ctx, paths)
	if err != nil {
		return err
	}
	if exportDir != "" {
		if err := exportOutcomes(exportDir, outs); err != nil {
			return err
		}
	}
	return printOutcomes(cmd.OutOrStdout(), outs)
}

func exportOutcomes(dir string, outs []*app.Outcome) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, o := range outs {
		if err := writeFile(filepath.Join(dir, o.Scenario+".csv"), func(w io.Writer) error {
			return export.WriteOrderCSV(w, o.Order)
		}); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(dir, o.Scenario+".summary.json"), func(w io.Writer) error {
			return export.WriteJSON(w, o.Summary)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

func printOutcomes(w io.Writer, outs []*app.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SCENARIO\tRUN\tSHORTAGE\tMEAN RESIDUAL\tPEAK RESIDUAL\tSURPLUS")
	for _, o := range outs {
		s := o.Summary
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%.2f\t%.2f\t%.2f\n",
			o.Scenario, o.RunID, len(s.ShortageFrames), s.Horizon, s.MeanResidual, s.PeakResidual, s.SurplusEnergy)
	}
	for _, o := range outs {
		_, _ = fmt.Fprintf(tw, "\n%s\tCOST\tENERGY\tCAPACITY FACTOR\tPRICE SETTING\n", o.Scenario)
		for _, d := range o.Summary.Dispatchables {
			_, _ = fmt.Fprintf(tw, "  %s\t%.2f\t%.2f\t%.3f\t%d\n",
				d.Key, d.Cost, d.Energy, d.CapacityFactor, d.PriceSettingFrames)
		}
	}
	return tw.Flush()
}
