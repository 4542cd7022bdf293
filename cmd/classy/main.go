package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	var verbosity int
	var logPath string

	rootCmd := &cobra.Command{
		Use:   "classy",
		Short: "Read, write and assemble JVM class files",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logPath == "" {
				commonlog.Configure(verbosity, nil)
			} else {
				commonlog.Configure(verbosity, &logPath)
			}
		},
	}
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "log more (repeat for debug output)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newRoundtripCmd())
	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newGraphCmd())
	rootCmd.AddCommand(newDescriptorCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
