// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/oracle"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/parse"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/pipeline"
)

var reclassifyCmd = &cobra.Command{
	Use:   "reclassify <filename>",
	Short: "Redo the category of an already-ingested document",
	Long: `Reclassify re-reads one document already in the knowledge base and asks
the AI for a fresh category under the current preference bias. Key points,
keywords, and relations are untouched. The filename may be the stored
source path or just the base name.`,
	Args: cobra.ExactArgs(1),
	RunE: runReclassify,
}

func runReclassify(cmd *cobra.Command, args []string) error {
	cfg, err := pipelineConfig(cmd)
	if err != nil {
		return err
	}

	backend, err := oracle.New(cfg.AI)
	if err != nil {
		return err
	}

	_, err = pipeline.Reclassify(context.Background(), parse.FileParser{}, backend, cfg, args[0], os.Stdout)
	return err
}

func init() {
	reclassifyCmd.Flags().String("input-dir", "", "folder of source documents (default input_docs)")
	reclassifyCmd.Flags().String("store", "", "knowledge base file (default output_kb/knowledge_base.yaml)")
	reclassifyCmd.Flags().String("model", "", "AI model identifier for classification")
	reclassifyCmd.Flags().Int("max-excerpt-chars", 0, "character cap on the text analyzed (default 1000)")
	reclassifyCmd.Flags().Duration("timeout", 0, "oracle timeout (default 60s)")
	reclassifyCmd.Flags().Bool("mock", false, "use the deterministic offline oracle")
	reclassifyCmd.Flags().Bool("uncategorized-fallback", false, "unused for reclassify; a failed classification leaves the record unchanged")

	rootCmd.AddCommand(reclassifyCmd)
}
