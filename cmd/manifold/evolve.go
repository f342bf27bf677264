package main

import "github.com/spf13/cobra"

var evolveCmd = &cobra.Command{
	Use:   "evolve <point-id>",
	Short: "Run one field evolution step against a stored point",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvolve,
}

func init() {
	rootCmd.AddCommand(evolveCmd)
}

func runEvolve(cmd *cobra.Command, args []string) error {
	e, cleanup, err := buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := e.EvolveCoherenceField(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(result)
}
