package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/Alijeyrad/medcenter_backend/cmd/http"
	systemcmd "github.com/Alijeyrad/medcenter_backend/cmd/system"
	usercmd "github.com/Alijeyrad/medcenter_backend/cmd/user"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "medcenter",
	Short: "Medical center backend for a campus hospital.",
	Long: `medcenter runs the campus medical center: patient registration, visit
queues, consultations and prescriptions, lab reports, and the OTP-gated
disclosure of patient history to doctors.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
	rootCmd.AddCommand(usercmd.NewUserCommand())
}
