package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"

	api "github.com/studio-labs/assessor/api/v1alpha1"
)

type StatsOptions struct {
	GlobalOptions

	Output string
}

func DefaultStatsOptions() *StatsOptions {
	return &StatsOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdStats() *cobra.Command {
	o := DefaultStatsOptions()
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize your assessments.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *StatsOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *StatsOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if len(o.Output) > 0 && !funk.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}
	return nil
}

func (o *StatsOptions) Run(ctx context.Context, args []string) error {
	stats, err := o.Client().GetStats(ctx)
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}

	if o.Output != "" {
		return printResource(os.Stdout, stats, o.Output)
	}
	printStats(stats)
	return nil
}

func printStats(stats *api.AssessmentStats) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, '\t', 0)
	fmt.Fprintf(w, "TOTAL\t%d\n", stats.Total)

	statuses := funk.Keys(stats.ByStatus).([]api.AssessmentStatus)
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	for _, s := range statuses {
		fmt.Fprintf(w, "%s\t%d\n", strings.ToUpper(string(s)), stats.ByStatus[s])
	}

	fmt.Fprintf(w, "TOTAL AMOUNT\t%s\n", stats.TotalAmount.StringFixed(2))
	fmt.Fprintf(w, "AVG CONFIDENCE\t%.1f\n", stats.AverageConfidence)
	fmt.Fprintf(w, "AVG RISK SCORE\t%.1f\n", stats.AverageRiskScore)
	w.Flush()
}
