package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loomhq/loom/router"
)

var routeAction string

// routeCmd dispatches an input string through the text-transform router.
var routeCmd = &cobra.Command{
	Use:   "route <input>",
	Short: "Route text through a named transformation",
	Example: `  # Reverse a string
  loom route hello --action reverse

  # Uppercase a string
  loom route hello --action upper`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := router.New()

		out, err := r.Route(cmd.Context(), args[0], router.Action(routeAction))
		if errors.Is(err, router.ErrInvalidAction) {
			return fmt.Errorf("unknown action %q (valid: %v)", routeAction, r.Actions())
		}
		if err != nil {
			return err
		}

		fmt.Println(out)
		return nil
	},
}

func init() {
	routeCmd.Flags().StringVar(&routeAction, "action", "", "Transformation to apply (reverse, upper)")
	_ = routeCmd.MarkFlagRequired("action")

	rootCmd.AddCommand(routeCmd)
}
