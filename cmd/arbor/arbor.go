// Package arborcmder
package arborcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/arborhq/arbor/cmd/arbor/config"
	ingestcmder "github.com/arborhq/arbor/cmd/arbor/ingest"
	initcmder "github.com/arborhq/arbor/cmd/arbor/init"
	recentcmder "github.com/arborhq/arbor/cmd/arbor/recent"
	rmcmder "github.com/arborhq/arbor/cmd/arbor/rm"
	searchcmder "github.com/arborhq/arbor/cmd/arbor/search"
	showcmder "github.com/arborhq/arbor/cmd/arbor/show"
	synccmder "github.com/arborhq/arbor/cmd/arbor/sync"
	versioncmder "github.com/arborhq/arbor/cmd/version"
)

const arborLongDesc string = `Arbor grows a markdown knowledge forest from streamed transcript text.

Feed it transcripts using:
  arbor ingest         Stream transcript text into the vault
  arbor search         Rank vault nodes against a query
  arbor sync           Reconcile the vault and the vector index`

const arborShortDesc string = "Arbor - Voice Knowledge Forest"

func NewArborCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arbor",
		Short: arborShortDesc,
		Long:  arborLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .arbor directory location")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(recentcmder.NewRecentCmd())
	cmd.AddCommand(showcmder.NewShowCmd())
	cmd.AddCommand(rmcmder.NewRmCmd())
	cmd.AddCommand(synccmder.NewSyncCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
