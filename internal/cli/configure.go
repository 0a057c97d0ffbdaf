package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/studio-labs/assessor/internal/client"
)

type ConfigureOptions struct {
	GlobalOptions

	WebhookURL string
}

func DefaultConfigureOptions() *ConfigureOptions {
	return &ConfigureOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdConfigure() *cobra.Command {
	o := DefaultConfigureOptions()
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Write the client config file.",
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

func (o *ConfigureOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.WebhookURL, "webhook-url", o.WebhookURL, "Workflow engine webhook that starts assessment jobs")
}

func (o *ConfigureOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	if o.WebhookURL != "" {
		o.Config().Webhook.URL = o.WebhookURL
	}
	return nil
}

func (o *ConfigureOptions) Run(ctx context.Context, args []string) error {
	cfg := o.Config()
	if err := client.WriteConfig(o.ConfigFilePath, cfg.Service.Server, cfg.Webhook.URL, cfg.User); err != nil {
		return fmt.Errorf("writing %s: %w", o.ConfigFilePath, err)
	}
	fmt.Printf("config written to %s\n", o.ConfigFilePath)
	return nil
}
