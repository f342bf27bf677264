package main

import (
	"time"

	"github.com/spf13/cobra"
)

var (
	clusterWindow    time.Duration
	clusterThreshold float64
	clusterMinSize   int
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Compute coordination clusters across the coupling graph",
	Args:  cobra.NoArgs,
	RunE:  runCluster,
}

func init() {
	clusterCmd.Flags().DurationVar(&clusterWindow, "window", 0, "trailing time window to scan (default from config, 24h)")
	clusterCmd.Flags().Float64Var(&clusterThreshold, "threshold", 0, "minimum coupling magnitude for a pair to count (default from config, 0.8)")
	clusterCmd.Flags().IntVar(&clusterMinSize, "min-size", 0, "minimum cluster size to emit (default from config, 3)")
	rootCmd.AddCommand(clusterCmd)
}

func runCluster(cmd *cobra.Command, args []string) error {
	e, cleanup, err := buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	clusters, err := e.CoordinationClusters(cmd.Context(), clusterWindow, clusterThreshold, clusterMinSize)
	if err != nil {
		return err
	}
	return printJSON(clusters)
}
