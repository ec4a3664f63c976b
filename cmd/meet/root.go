package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/ui"
	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "meet",
	Short:   "Many-to-many video meetings from the terminal, powered by WebRTC",
	Long:    `Meet is a command-line client for hosting and joining multi-party audio/video rooms. Media flows directly between participants over WebRTC; the server only coordinates admission and relays negotiation messages. Rooms support chat, reactions, raised hands and screen sharing.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
