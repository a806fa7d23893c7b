package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:           "applink",
		Short:         "Resolve App Links and open the best target for a URL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	linkFile  string
	platforms []string
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&linkFile, "link-file", "", "Resolve from a JSON file of App Links instead of fetching pages")
	rootCmd.PersistentFlags().StringSliceVarP(&platforms, "platform", "p", nil, "Platform preference list, most preferred first (default: APPLINK_PLATFORMS)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(versionCmd)
}
