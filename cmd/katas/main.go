package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	pythonFlag string
	runnerFlag string
)

var rootCmd = &cobra.Command{
	Use:   "katas",
	Short: "OpenCV katas execution backend",
	Long: `Katas is the execution backend for the OpenCV learning platform.

It runs learner-submitted Python/OpenCV snippets either in a time-limited
sandbox subprocess or directly on the desktop for live camera exercises,
and serves the kata catalog and run history over HTTP.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&pythonFlag, "python", "", "Python interpreter (overrides config)")
	rootCmd.PersistentFlags().StringVar(&runnerFlag, "runner", "", "Sandbox runner script path (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
