package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/studio-labs/assessor/internal/chatflow"
	"github.com/studio-labs/assessor/internal/scheduler"
)

const confirmChoice = "confirm"

type ChatOptions struct {
	SubmitOptions
}

func DefaultChatOptions() *ChatOptions {
	return &ChatOptions{
		SubmitOptions: DefaultSubmitOptions(),
	}
}

func NewCmdChat() *cobra.Command {
	o := DefaultChatOptions()
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Describe your investment in a guided conversation and run an assessment.",
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

func (o *ChatOptions) Run(ctx context.Context, args []string) error {
	values, err := converse(ctx, chatflow.CryptoAssessmentFlow(), scheduler.New(), surveyAsk, os.Stdout)
	if err != nil {
		return err
	}
	params, err := chatflow.CryptoParameters(values)
	if err != nil {
		return err
	}
	return o.submit(ctx, params)
}

// askFunc collects the answer to one prompt.
type askFunc func(p chatflow.Prompt) (string, error)

// converse runs flow to confirmation and returns the collected values.
func converse(ctx context.Context, flow chatflow.Flow, sched scheduler.Scheduler, ask askFunc, out io.Writer) (map[string]string, error) {
	prompts := make(chan chatflow.Prompt, 1)
	done := make(chan chatflow.Complete, 1)

	runner := chatflow.NewRunner(flow, sched, chatflow.Handlers{
		OnTyping: func(chatflow.StepID) {
			fmt.Fprint(out, mutedStyle.Render("..."))
		},
		OnSay: func(s chatflow.Say) {
			fmt.Fprintf(out, "\r\033[K%s %s\n", botStyle.Render("assessor>"), s.Text)
		},
		OnPrompt:   func(p chatflow.Prompt) { prompts <- p },
		OnComplete: func(c chatflow.Complete) { done <- c },
	})
	defer runner.Stop()

	if err := runner.Start(); err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case c := <-done:
			return c.Values, nil
		case p := <-prompts:
			if err := answer(runner, p, ask, out); err != nil {
				return nil, err
			}
		}
	}
}

// answer asks p until the runner accepts the answer.
func answer(runner *chatflow.Runner, p chatflow.Prompt, ask askFunc, out io.Writer) error {
	for {
		value, err := ask(p)
		if err != nil {
			return err
		}

		switch {
		case p.Step != chatflow.StepSummary:
			err = runner.Answer(value)
		case value == confirmChoice:
			err = runner.Confirm()
		default:
			err = runner.Edit(chatflow.StepID(value))
		}

		var answerErr *chatflow.AnswerError
		if errors.As(err, &answerErr) {
			fmt.Fprintln(out, errorStyle.Render(answerErr.Reason))
			continue
		}
		return err
	}
}

func surveyAsk(p chatflow.Prompt) (string, error) {
	var value string

	var prompt survey.Prompt
	switch {
	case p.Step == chatflow.StepSummary:
		prompt = &survey.Select{
			Message: "Ready?",
			Options: append([]string{confirmChoice}, p.Options...),
			Default: confirmChoice,
		}
	case len(p.Options) > 0:
		prompt = &survey.Select{Message: ">", Options: p.Options}
	default:
		prompt = &survey.Input{Message: ">"}
	}

	var opts []survey.AskOpt
	if !p.Optional && len(p.Options) == 0 {
		opts = append(opts, survey.WithValidator(survey.Required))
	}
	if err := survey.AskOne(prompt, &value, opts...); err != nil {
		return "", err
	}
	return value, nil
}
