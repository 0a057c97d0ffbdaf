package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"golang.org/x/text/language"

	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/submission"
)

var (
	legalRiskTolerances = []string{string(api.RiskToleranceConservative), string(api.RiskToleranceModerate), string(api.RiskToleranceAggressive)}
	legalTimeHorizons   = []string{string(api.TimeHorizonShortTerm), string(api.TimeHorizonMediumTerm), string(api.TimeHorizonLongTerm)}
)

func NewCmdCreate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a resource",
	}
	cmd.AddCommand(NewCmdCreateAssessment())
	return cmd
}

// SubmitOptions are shared by every command that submits an assessment.
type SubmitOptions struct {
	GlobalOptions

	WebhookURL string
	NoWait     bool
	Lang       string

	lang language.Tag
}

func DefaultSubmitOptions() SubmitOptions {
	return SubmitOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Lang:          "en",
	}
}

func (o *SubmitOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.WebhookURL, "webhook-url", o.WebhookURL, "Workflow engine webhook, overrides the config file")
	fs.BoolVar(&o.NoWait, "no-wait", o.NoWait, "Return once the workflow engine accepted the job instead of waiting for the result")
	fs.StringVar(&o.Lang, "lang", o.Lang, "Language of error messages (en, es)")
}

func (o *SubmitOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	if o.WebhookURL != "" {
		o.Config().Webhook.URL = o.WebhookURL
	}
	tag, err := language.Parse(o.Lang)
	if err != nil {
		return fmt.Errorf("invalid language %q: %w", o.Lang, err)
	}
	o.lang = tag
	return nil
}

func (o *SubmitOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if o.Config().Webhook.URL == "" {
		return fmt.Errorf("no webhook configured: run 'assessor configure --webhook-url' or pass --webhook-url")
	}
	return nil
}

func (o *SubmitOptions) trigger() *submission.Trigger {
	timeout := submission.DefaultTriggerTimeout
	if s := o.Config().Webhook.TimeoutSeconds; s > 0 {
		timeout = time.Duration(s) * time.Second
	}
	return submission.NewTrigger(o.Config().Webhook.URL, timeout)
}

// submit runs a submission and prints its outcome.
func (o *SubmitOptions) submit(ctx context.Context, params submission.Parameters) error {
	c := o.Client()

	if o.NoWait {
		id, err := submission.NewCreator(c).Create(ctx, o.Owner(), params)
		if err != nil {
			return o.userError(err)
		}
		if err := o.trigger().Trigger(ctx, id, o.Owner(), params); err != nil {
			return o.userError(err)
		}
		fmt.Printf("assessment %s is generating, check it with 'assessor get assessment/%s'\n", shortID(id), id)
		return nil
	}

	assessment, err := submission.NewOrchestrator(c, o.trigger(), nil).Run(ctx, o.Owner(), params, progressPrinter(os.Stderr))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return o.userError(err)
	}
	fmt.Println(renderAssessment(*assessment))
	return nil
}

func (o *SubmitOptions) userError(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("submission cancelled")
	}
	if e := submission.AsError(err); e != nil {
		return errors.New(errorStyle.Render(e.UserMessage(o.lang)))
	}
	return err
}

type CreateAssessmentOptions struct {
	SubmitOptions

	Symbol        string
	Amount        string
	RiskTolerance string
	TimeHorizon   string
	Notes         string
}

func DefaultCreateAssessmentOptions() *CreateAssessmentOptions {
	return &CreateAssessmentOptions{
		SubmitOptions: DefaultSubmitOptions(),
		RiskTolerance: string(api.RiskToleranceModerate),
		TimeHorizon:   string(api.TimeHorizonMediumTerm),
	}
}

func NewCmdCreateAssessment() *cobra.Command {
	o := DefaultCreateAssessmentOptions()
	cmd := &cobra.Command{
		Use:   "assessment",
		Short: "Submit a crypto risk assessment and wait for the result.",
		Example: "  assessor create assessment --symbol BTC --amount 5000 --risk moderate --horizon long_term\n" +
			"  assessor create assessment --symbol ETH --amount 250 --no-wait",
		Args: cobra.NoArgs,
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

func (o *CreateAssessmentOptions) Bind(fs *pflag.FlagSet) {
	o.SubmitOptions.Bind(fs)

	fs.StringVar(&o.Symbol, "symbol", o.Symbol, "Cryptocurrency ticker, for example BTC")
	fs.StringVar(&o.Amount, "amount", o.Amount, "Investment amount in USD")
	fs.StringVar(&o.RiskTolerance, "risk", o.RiskTolerance, fmt.Sprintf("Risk tolerance. One of: (%s).", strings.Join(legalRiskTolerances, ", ")))
	fs.StringVar(&o.TimeHorizon, "horizon", o.TimeHorizon, fmt.Sprintf("Time horizon. One of: (%s).", strings.Join(legalTimeHorizons, ", ")))
	fs.StringVar(&o.Notes, "notes", o.Notes, "Free-form notes for the analysis")
}

func (o *CreateAssessmentOptions) Validate(args []string) error {
	if err := o.SubmitOptions.Validate(args); err != nil {
		return err
	}
	if _, err := o.parameters(); err != nil {
		return err
	}
	return nil
}

func (o *CreateAssessmentOptions) parameters() (submission.Parameters, error) {
	if o.Symbol == "" {
		return submission.Parameters{}, fmt.Errorf("--symbol is required")
	}
	amount, err := decimal.NewFromString(o.Amount)
	if err != nil {
		return submission.Parameters{}, fmt.Errorf("invalid --amount %q", o.Amount)
	}
	if !amount.IsPositive() {
		return submission.Parameters{}, fmt.Errorf("--amount must be positive")
	}
	if !funk.ContainsString(legalRiskTolerances, o.RiskTolerance) {
		return submission.Parameters{}, fmt.Errorf("--risk must be one of %s", strings.Join(legalRiskTolerances, ", "))
	}
	if !funk.ContainsString(legalTimeHorizons, o.TimeHorizon) {
		return submission.Parameters{}, fmt.Errorf("--horizon must be one of %s", strings.Join(legalTimeHorizons, ", "))
	}

	params := submission.Parameters{
		Symbol:        strings.ToUpper(o.Symbol),
		Amount:        amount,
		RiskTolerance: api.RiskTolerance(o.RiskTolerance),
		TimeHorizon:   api.TimeHorizon(o.TimeHorizon),
	}
	if o.Notes != "" {
		params.Notes = &o.Notes
	}
	return params, nil
}

func (o *CreateAssessmentOptions) Run(ctx context.Context, args []string) error {
	params, err := o.parameters()
	if err != nil {
		return err
	}
	return o.submit(ctx, params)
}
