package main

import (
	goflag "flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "sealscan",
	Short:         "sealscan, static vulnerability checks for Solana programs",
	Long:          "",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(*cobra.Command, []string) {
		configureLogger(viper.GetString(logFilenameKey), verbose)
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func main() {
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	configureRootFlags(rootCmd)

	rootCmd.AddCommand(versionCommand)
	rootCmd.AddCommand(analyzeCommand)
	rootCmd.AddCommand(cfgCommand)
	rootCmd.AddCommand(rulesCommand)

	if err := rootCmd.Execute(); err != nil {
		if errors.Cause(err) != errIssuesFound {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
