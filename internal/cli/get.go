package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"sigs.k8s.io/yaml"

	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/client"
)

const (
	jsonFormat = "json"
	yamlFormat = "yaml"
)

var (
	legalOutputTypes = []string{jsonFormat, yamlFormat}
)

type GetOptions struct {
	GlobalOptions

	Output string
	Status string
	Symbol string
	Limit  int
}

func DefaultGetOptions() *GetOptions {
	return &GetOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdGet() *cobra.Command {
	o := DefaultGetOptions()
	cmd := &cobra.Command{
		Use:   "get (TYPE | TYPE/ID | TYPE ID)",
		Short: "Display one or many assessments.",
		Args:  cobra.RangeArgs(1, 2),
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

func (o *GetOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
	fs.StringVar(&o.Status, "status", o.Status, "Only list assessments in this status (generating, ready, failed).")
	fs.StringVar(&o.Symbol, "symbol", o.Symbol, "Only list assessments for this symbol.")
	fs.IntVar(&o.Limit, "limit", o.Limit, "Maximum number of assessments to list.")
}

func (o *GetOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}

	if _, _, err := parseAndValidateKindId(args); err != nil {
		return err
	}

	if len(o.Output) > 0 && !funk.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}

	legalStatuses := []string{string(api.AssessmentStatusGenerating), string(api.AssessmentStatusReady), string(api.AssessmentStatusFailed)}
	if len(o.Status) > 0 && !funk.ContainsString(legalStatuses, o.Status) {
		return fmt.Errorf("status must be one of %s", strings.Join(legalStatuses, ", "))
	}

	return nil
}

func (o *GetOptions) Run(ctx context.Context, args []string) error {
	c := o.Client()

	kind, id, err := parseAndValidateKindId(args)
	if err != nil {
		return err
	}

	if id != nil {
		envelope, err := c.GetAssessment(ctx, *id)
		if err != nil {
			return fmt.Errorf("reading %s/%s: %w", kind, id, err)
		}
		if envelope.Assessment == nil {
			return fmt.Errorf("reading %s/%s: not found", kind, id)
		}
		return printResource(os.Stdout, envelope, o.Output, *envelope.Assessment)
	}

	list, err := c.ListAssessments(ctx, client.ListParams{
		Status: api.AssessmentStatus(o.Status),
		Symbol: strings.ToUpper(o.Symbol),
		Limit:  o.Limit,
	})
	if err != nil {
		return fmt.Errorf("listing %s: %w", plural(kind), err)
	}
	return printResource(os.Stdout, list, o.Output, list.Assessments...)
}

func printResource(w io.Writer, resource any, output string, assessments ...api.Assessment) error {
	switch output {
	case jsonFormat:
		marshalled, err := json.Marshal(resource)
		if err != nil {
			return fmt.Errorf("marshalling resource: %w", err)
		}
		fmt.Fprintf(w, "%s\n", string(marshalled))
		return nil
	case yamlFormat:
		marshalled, err := yaml.Marshal(resource)
		if err != nil {
			return fmt.Errorf("marshalling resource: %w", err)
		}
		fmt.Fprintf(w, "%s\n", string(marshalled))
		return nil
	default:
		printAssessmentsTable(w, assessments...)
		return nil
	}
}

func printAssessmentsTable(out io.Writer, assessments ...api.Assessment) {
	w := tabwriter.NewWriter(out, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "ID\tSYMBOL\tAMOUNT\tSTATUS\tDECISION\tCONFIDENCE\tCREATED")
	for _, a := range assessments {
		decision, confidence := "-", "-"
		if a.AssessmentData != nil {
			decision = string(a.AssessmentData.Decision)
			confidence = fmt.Sprintf("%d%%", a.AssessmentData.Confidence)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.Id, a.Symbol, a.Amount.StringFixed(2), a.Status, decision, confidence, a.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
}

// shortID is used in human messages.
func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
