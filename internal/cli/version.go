package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thoas/go-funk"

	"github.com/studio-labs/assessor/pkg/version"
)

type VersionOptions struct {
	Output string
}

func DefaultVersionOptions() *VersionOptions {
	return &VersionOptions{
		Output: "",
	}
}

func NewCmdVersion() *cobra.Command {
	o := DefaultVersionOptions()
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print assessor version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context(), args)
		},
	}
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (json, yaml).")
	return cmd
}

func (o *VersionOptions) Run(ctx context.Context, args []string) error {
	versionInfo := version.Get()
	if o.Output != "" {
		if !funk.ContainsString(legalOutputTypes, o.Output) {
			return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
		}
		return printResource(os.Stdout, versionInfo, o.Output)
	}
	fmt.Printf("Assessor Version: %s\n", versionInfo.String())
	return nil
}
