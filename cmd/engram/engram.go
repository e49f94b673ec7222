// Package engramcmder
package engramcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/engramlabs/engram/cmd/engram/chat"
	configcmder "github.com/engramlabs/engram/cmd/engram/config"
	servecmder "github.com/engramlabs/engram/cmd/engram/serve"
	versioncmder "github.com/engramlabs/engram/cmd/version"
)

const engramLongDesc string = `Engram is layered conversational memory for local LLMs.

Every chat turn is composed from three memory tiers: a short-term message
window, long-term rolling summaries, and episodic facts extracted from the
conversation.

Run the service using:
  engram serve         Run the API server
  engram chat          Chat interactively against a running server
  engram config        Manage persistent configuration`

const engramShortDesc string = "Engram - Layered Conversational Memory"

func NewEngramCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engram",
		Short: engramShortDesc,
		Long:  engramLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .engram/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
