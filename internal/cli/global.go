package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/studio-labs/assessor/internal/client"
)

// Environment overrides, applied below the command line flags.
const (
	serverEnvKey = "ASSESSOR_SERVER"
	userEnvKey   = "ASSESSOR_USER"
	tokenEnvKey  = "ASSESSOR_TOKEN"
)

type GlobalOptions struct {
	ConfigFilePath string
	ServerUrl      string
	User           string

	config *client.Config
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		ConfigFilePath: client.DefaultConfigPath(),
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFilePath, "config", "c", o.ConfigFilePath, "Path to the client config file")
	fs.StringVarP(&o.ServerUrl, "server-url", "u", o.ServerUrl, "Address of the server, overrides the config file")
	fs.StringVar(&o.User, "user", o.User, "Acting user when the server runs without token authentication")
}

// Complete loads the config file and applies the flag overrides on top of it.
func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	cfg, err := client.LoadConfig(o.ConfigFilePath)
	if err != nil {
		return err
	}
	if server := firstNonEmpty(o.ServerUrl, os.Getenv(serverEnvKey)); server != "" {
		cfg.Service.Server = server
	}
	if user := firstNonEmpty(o.User, os.Getenv(userEnvKey)); user != "" {
		cfg.User = user
	}
	if token := os.Getenv(tokenEnvKey); token != "" {
		cfg.Token = token
	}
	o.config = cfg
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	if o.config == nil {
		return nil
	}
	return o.config.Validate()
}

func (o *GlobalOptions) Config() *client.Config {
	if o.config == nil {
		o.config = client.NewDefault()
	}
	return o.config
}

// Owner is the user assessments are submitted for.
func (o *GlobalOptions) Owner() string {
	if user := o.Config().User; user != "" {
		return user
	}
	return "admin"
}

func (o *GlobalOptions) Client() *client.AssessorClient {
	return client.NewFromConfig(o.Config())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
