package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loomhq/loom/advisor"
)

const snippetLen = 60

// adviseCmd runs the business advisor pipeline for an industry.
var adviseCmd = &cobra.Command{
	Use:   "advise <industry>",
	Short: "Run the business advisor pipeline",
	Long: `Generate a business idea for an industry, critique it, and produce a
structured report of strengths and weaknesses. Raw intermediate model
responses are captured in an audit trail.`,
	Example: `  # Advise on the agro sector
  loom advise agro

  # With verbose model call logging
  loom advise fintech --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		client := newClient(logger)

		adv, err := advisor.New(client)
		if err != nil {
			return err
		}

		fmt.Println("--- Starting AI Business Advisor Workflow ---")
		report, audit, err := adv.Run(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("workflow execution failed: %w", err)
		}

		fmt.Println("\n--- FINAL STRUCTURED REPORT ---")
		fmt.Printf("STRENGTHS: %v\n", report.Strengths)
		fmt.Printf("WEAKNESSES: %v\n", report.Weaknesses)

		entries := audit.Entries()
		fmt.Printf("\nAudit Trail: %d LLM steps captured successfully.\n", len(entries))
		for i, entry := range entries {
			fmt.Printf("  > Log %d Snippet: %s\n", i+1, entry.Snippet(snippetLen))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(adviseCmd)
}
