package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
)

var legalExportFormats = []string{"csv", "xlsx"}

type ExportOptions struct {
	GlobalOptions

	Format string
	Out    string
}

func DefaultExportOptions() *ExportOptions {
	return &ExportOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Format:        "csv",
	}
}

func NewCmdExport() *cobra.Command {
	o := DefaultExportOptions()
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download a report of your assessments.",
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

func (o *ExportOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.Format, "format", o.Format, fmt.Sprintf("Report format. One of: (%s).", strings.Join(legalExportFormats, ", ")))
	fs.StringVar(&o.Out, "out", o.Out, "Write the report to this file. Defaults to assessments.<format>.")
}

func (o *ExportOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	o.Format = strings.ToLower(o.Format)
	if o.Out == "" {
		o.Out = "assessments." + o.Format
	}
	return nil
}

func (o *ExportOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if !funk.ContainsString(legalExportFormats, o.Format) {
		return fmt.Errorf("format must be one of %s", strings.Join(legalExportFormats, ", "))
	}
	return nil
}

func (o *ExportOptions) Run(ctx context.Context, args []string) error {
	content, _, err := o.Client().Export(ctx, o.Format)
	if err != nil {
		return fmt.Errorf("exporting assessments: %w", err)
	}
	if err := os.WriteFile(o.Out, content, 0600); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	fmt.Printf("report written to %s (%d bytes)\n", o.Out, len(content))
	return nil
}
