package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	detectGroup string
	detectRunID string
)

var detectCmd = &cobra.Command{
	Use:   "detect <point-id>",
	Short: "Run structural-breakdown detectors against a stored point",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetect,
}

func init() {
	detectCmd.Flags().StringVar(&detectGroup, "group", "", "run one detector group instead of all twelve: rigidity, fragmentation, inflation, observer")
	detectCmd.Flags().StringVar(&detectRunID, "run-id", "manual", "run id recorded alongside every emitted signature")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	e, cleanup, err := buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	pointID := args[0]

	if detectGroup != "" {
		out, err := e.DetectGroup(cmd.Context(), detectGroup, pointID, detectRunID)
		if err != nil {
			return err
		}
		return printJSON(out)
	}

	out, err := e.DetectAll(cmd.Context(), pointID, detectRunID)
	if err != nil {
		return err
	}
	return printJSON(out)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
