package http

import "github.com/spf13/cobra"

func NewHTTPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "HTTP API server commands",
		Long: `Serve the /api/v1 REST API used by the front desk, doctors, the lab and
the pharmacy. Run "system migrate" before the first start.`,
	}

	cmd.AddCommand(NewStartCommand())

	return cmd
}
