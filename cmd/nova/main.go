// Nova is a conversational companion daemon: it detects the user's emotion,
// remembers what it learns, and answers in a persona's voice over HTTP,
// WebSocket and gRPC.
//
// Usage:
//
//	nova serve [--config /path/to/nova.yaml]
//	nova ask "I feel happy today" [--addr localhost:50051]
//	nova version
//
// @title       Nova API
// @version     1.0
// @description Conversational companion with emotion, memory and voice.
// @license.name MIT
// @BasePath    /
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/nadzzz/nova/docs"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "nova",
		Short:         "Conversational companion daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("nova %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
