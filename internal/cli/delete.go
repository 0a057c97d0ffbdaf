package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type DeleteOptions struct {
	GlobalOptions
}

func DefaultDeleteOptions() *DeleteOptions {
	return &DeleteOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdDelete() *cobra.Command {
	o := DefaultDeleteOptions()
	cmd := &cobra.Command{
		Use:   "delete (TYPE/ID | TYPE ID)",
		Short: "Delete an assessment.",
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

func (o *DeleteOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
}

func (o *DeleteOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}

	_, id, err := parseAndValidateKindId(args)
	if err != nil {
		return err
	}
	if id == nil {
		return fmt.Errorf("an assessment ID is required")
	}
	return nil
}

func (o *DeleteOptions) Run(ctx context.Context, args []string) error {
	kind, id, err := parseAndValidateKindId(args)
	if err != nil {
		return err
	}

	envelope, err := o.Client().DeleteAssessment(ctx, *id)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", kind, id, err)
	}
	if envelope.Assessment != nil {
		fmt.Printf("deleted %s %s (%s)\n", kind, shortID(envelope.Assessment.Id), envelope.Assessment.Symbol)
	}
	return nil
}
