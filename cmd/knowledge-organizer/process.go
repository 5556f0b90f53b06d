// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/oracle"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/parse"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/pipeline"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/pkg/types"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Ingest unprocessed documents from the input folder",
	Long: `Process scans the input folder, skips documents already in the knowledge
base, and ingests the rest: text extraction, classification (biased by your
historical categories), key-point and keyword extraction, and relation
linking. The knowledge base file is rewritten atomically at the end of the
run. Failed documents are named and skipped; the batch always continues.`,
	RunE: runProcess,
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := pipelineConfig(cmd)
	if err != nil {
		return err
	}

	backend, err := oracle.New(cfg.AI)
	if err != nil {
		return err
	}

	summary, err := pipeline.Run(context.Background(), parse.FileParser{}, backend, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed", summary.Failed)
	}
	return nil
}

// pipelineConfig assembles the run configuration: config-file values first,
// overridden by flags, with secrets filling the API key.
func pipelineConfig(cmd *cobra.Command) (types.PipelineConfig, error) {
	cfg := types.PipelineConfig{
		AI: types.AIConfig{
			Mode:       types.OracleMode(viper.GetString("ai.mode")),
			Model:      viper.GetString("ai.model"),
			APIKey:     viper.GetString("ai.api_key"),
			MaxRetries: viper.GetInt("ai.max_retries"),
			Timeout:    viper.GetDuration("ai.timeout"),
		},
		Parser: types.ParserConfig{
			InputDir:        viper.GetString("parser.input_dir"),
			MaxExcerptChars: viper.GetInt("parser.max_excerpt_chars"),
		},
		Classifier: types.ClassifierConfig{
			BiasTopN:              viper.GetInt("classifier.bias_top_n"),
			FallbackUncategorized: viper.GetBool("classifier.fallback_uncategorized"),
		},
		Store: types.StoreConfig{
			Path: viper.GetString("store.path"),
		},
	}

	if v, _ := cmd.Flags().GetString("input-dir"); v != "" {
		cfg.Parser.InputDir = v
	}
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.Store.Path = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.AI.Model = v
	}
	if v, _ := cmd.Flags().GetInt("max-excerpt-chars"); v > 0 {
		cfg.Parser.MaxExcerptChars = v
	}
	if v, _ := cmd.Flags().GetDuration("timeout"); v > 0 {
		cfg.AI.Timeout = v
	}
	if mock, _ := cmd.Flags().GetBool("mock"); mock {
		cfg.AI.Mode = types.OracleMock
	}
	if fallback, _ := cmd.Flags().GetBool("uncategorized-fallback"); fallback {
		cfg.Classifier.FallbackUncategorized = true
	}

	cfg.AI.APIKey = secretDefault("anthropic-api-key", cfg.AI.APIKey)
	cfg.ApplyDefaults()
	return cfg, nil
}

func init() {
	processCmd.Flags().String("input-dir", "", "folder of source documents (default input_docs)")
	processCmd.Flags().String("store", "", "knowledge base file (default output_kb/knowledge_base.yaml)")
	processCmd.Flags().String("model", "", "AI model identifier for classification and extraction")
	processCmd.Flags().Int("max-excerpt-chars", 0, "character cap on the text analyzed per document (default 1000)")
	processCmd.Flags().Duration("timeout", 0, "oracle timeout per document (default 60s)")
	processCmd.Flags().Bool("mock", false, "use the deterministic offline oracle")
	processCmd.Flags().Bool("uncategorized-fallback", false, "file documents under Uncategorized when classification fails instead of skipping them")

	rootCmd.AddCommand(processCmd)
}
