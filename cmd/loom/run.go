package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loomhq/loom/yaml"
)

var runParams []string

// runCmd executes a pipeline defined in a YAML file.
var runCmd = &cobra.Command{
	Use:   "run <file.yaml>",
	Short: "Execute a pipeline from a YAML definition",
	Example: `  # Run a pipeline with an initial parameter
  loom run advisor.yaml --param industry=agro

  # Multiple parameters
  loom run pipeline.yaml --param topic=storage --param tone=formal`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := yaml.ParseFile(args[0])
		if err != nil {
			return err
		}

		params, err := parseParams(runParams)
		if err != nil {
			return err
		}

		logger := newLogger()
		pipeline, err := def.Build(newClient(logger))
		if err != nil {
			return err
		}

		result, err := pipeline.Run(cmd.Context(), params)
		if err != nil {
			return err
		}

		switch out := result.Output.(type) {
		case string:
			fmt.Println(out)
		default:
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal output: %w", err)
			}
			fmt.Println(string(data))
		}

		if verbose {
			for i, entry := range result.Audit.Entries() {
				fmt.Printf("  > Log %d [%s]: %s\n", i+1, entry.Stage, entry.Snippet(snippetLen))
			}
		}

		return nil
	},
}

// parseParams turns repeated key=value flags into the pipeline's initial
// parameter mapping.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}

func init() {
	runCmd.Flags().StringArrayVar(&runParams, "param", nil, "Initial parameter as key=value (repeatable)")

	rootCmd.AddCommand(runCmd)
}
