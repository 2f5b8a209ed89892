/*
Copyright © 2025 careline
*/
package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/careline/chatbot-be/config"
	"github.com/spf13/cobra"
)

// rebuildCmd represents the rebuild command
var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the vector index from the document store",
	Long: `Re-chunks and re-embeds every stored document and swaps the index
contents. Use after changing the chunker or embedding configuration, or
to repair a corrupted index out of band.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		ctx := context.Background()
		core, err := buildCore(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to wire services: %v", err)
		}
		defer core.Close(ctx)

		if err := core.indexService.Rebuild(ctx); err != nil {
			log.Fatalf("Rebuild failed: %v", err)
		}
		report, err := core.indexService.IntegrityCheck(ctx)
		if err != nil {
			log.Fatalf("Post-rebuild integrity check failed: %v", err)
		}
		fmt.Printf("Rebuilt index: %d documents, %d passages, corrupt=%v\n",
			report.DocumentCount, report.PassageCount, report.Corrupt)
	},
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}
