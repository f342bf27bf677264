package main

import "github.com/spf13/cobra"

var escalateCmd = &cobra.Command{
	Use:   "escalate <point-id>...",
	Short: "Score escalation dynamics along an ordered trajectory of points",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runEscalate,
}

func init() {
	rootCmd.AddCommand(escalateCmd)
}

func runEscalate(cmd *cobra.Command, args []string) error {
	e, cleanup, err := buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	recs, err := e.EscalationTrajectory(cmd.Context(), args)
	if err != nil {
		return err
	}
	return printJSON(recs)
}
