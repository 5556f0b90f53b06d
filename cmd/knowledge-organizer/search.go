// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/query"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/store"
)

var searchCmd = &cobra.Command{
	Use:   "search <category|keyword|related> <value>",
	Short: "Query the knowledge base",
	Long: `Search queries the knowledge base along one dimension:

  category  matches any of the three path segments, case-insensitively
  keyword   matches an exact keyword (not a substring)
  related   lists the documents linked to the given document ID

An empty result set is a normal outcome, not an error.`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	storePath := viper.GetString("store.path")
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		storePath = v
	}
	if storePath == "" {
		storePath = "output_kb/knowledge_base.yaml"
	}

	s, err := store.Load(storePath)
	if err != nil {
		return err
	}

	matches, err := query.Search(s.Base(), query.Kind(args[0]), args[1])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(matches, jsonOutput)
}

func formatSearchOutput(matches []query.Match, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}

	if len(matches) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-10s  %-30s  %-40s  %s\n",
		"ID", "Source", "Category", "Preview")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for _, m := range matches {
		fmt.Fprintf(os.Stdout, "%-10s  %-30s  %-40s  %s\n",
			m.ID, clipLeft(m.SourcePath, 30), clipRight(m.Category.String(), 40), m.Preview)
	}

	fmt.Fprintf(os.Stdout, "\n%d result(s)\n", len(matches))
	return nil
}

// clipLeft keeps the tail of s, rune-safely, within max display characters.
func clipLeft(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return "..." + string(runes[len(runes)-(max-3):])
}

// clipRight keeps the head of s, rune-safely, within max display characters.
func clipRight(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func init() {
	searchCmd.Flags().String("store", "", "knowledge base file (default output_kb/knowledge_base.yaml)")
	searchCmd.Flags().Bool("json", false, "emit results as JSON")

	rootCmd.AddCommand(searchCmd)
}
