package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/studio-labs/assessor/internal/cli"
)

func main() {
	// A .env in the working directory may carry ASSESSOR_* settings for local runs.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	command := NewAssessorCtlCommand()
	if err := command.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func NewAssessorCtlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assessor [flags] [options]",
		Short: "assessor submits crypto risk assessments and reads their results.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdGet())
	cmd.AddCommand(cli.NewCmdDelete())
	cmd.AddCommand(cli.NewCmdVersion())
	cmd.AddCommand(cli.NewCmdCreate())
	cmd.AddCommand(cli.NewCmdChat())
	cmd.AddCommand(cli.NewCmdStats())
	cmd.AddCommand(cli.NewCmdExport())
	cmd.AddCommand(cli.NewCmdConfigure())

	return cmd
}
