/*
Copyright © 2025 careline
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/careline/chatbot-be/config"
	"github.com/careline/chatbot-be/types"
	"github.com/spf13/cobra"
)

// addDocumentCmd represents the add-document command
var addDocumentCmd = &cobra.Command{
	Use:   "add-document",
	Short: "Index a text or markdown file into the knowledge base",
	Long: `Reads a file, chunks and embeds its content and indexes it.
The document id is derived from the content, so re-running on the same
file replaces the earlier version instead of duplicating it.`,
	Run: func(cmd *cobra.Command, args []string) {
		filePath, _ := cmd.Flags().GetString("file")
		title, _ := cmd.Flags().GetString("title")
		source, _ := cmd.Flags().GetString("source")
		tags, _ := cmd.Flags().GetStringArray("tags")

		if filePath == "" {
			log.Fatal("--file is required")
		}
		content, err := os.ReadFile(filePath)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", filePath, err)
		}
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
		}

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

		doc, err := core.indexService.AddDocument(ctx, types.AddDocumentRequest{
			Content: string(content),
			Metadata: types.Metadata{
				Title:  title,
				Source: source,
				Tags:   tags,
			},
		})
		if err != nil {
			log.Fatalf("Failed to index document: %v", err)
		}
		fmt.Printf("Indexed document %s with %d chunks\n", doc.ID, len(doc.ChunkIDs))
	},
}

func init() {
	rootCmd.AddCommand(addDocumentCmd)

	addDocumentCmd.Flags().StringP("file", "f", "", "Path to the file to index")
	addDocumentCmd.Flags().String("title", "", "Document title (defaults to the file name)")
	addDocumentCmd.Flags().String("source", "cli", "Document source label")
	addDocumentCmd.Flags().StringArrayP("tags", "g", []string{}, "Tags for the document")
}
