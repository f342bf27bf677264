package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manifold-eng/manifold-core/internal/model"
)

var (
	inspectCouplingLimit  int
	inspectSignatureLimit int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <point-id>",
	Short: "Dump a stored point's geometry, wisdom field, couplings, and signature history",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().IntVar(&inspectCouplingLimit, "couplings", 10, "number of recent couplings to include")
	inspectCmd.Flags().IntVar(&inspectSignatureLimit, "signatures", 10, "number of recent signature records to include")
	rootCmd.AddCommand(inspectCmd)
}

// inspectReport mirrors the reference controller's detail-mode dump: the
// point itself plus everything that hangs off it, assembled from separate
// store reads rather than a join.
type inspectReport struct {
	Point      *model.ManifoldPoint      `json:"point"`
	Wisdom     *model.WisdomField        `json:"wisdom,omitempty"`
	Couplings  []model.RecursiveCoupling `json:"couplings,omitempty"`
	Signatures []model.SignatureRecord   `json:"signatures,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	e, cleanup, err := buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	pointID := args[0]

	point, err := e.Store.GetPoint(pointID)
	if err != nil {
		return err
	}
	if point == nil {
		return fmt.Errorf("no point found for id %q", pointID)
	}

	report := inspectReport{Point: point}

	wisdom, err := e.Store.LatestWisdom(pointID)
	if err != nil {
		return err
	}
	report.Wisdom = wisdom

	couplings, err := e.Store.ListCouplings(pointID, inspectCouplingLimit)
	if err != nil {
		return err
	}
	report.Couplings = couplings

	sigs, err := e.Store.ListSignatures(pointID, inspectSignatureLimit)
	if err != nil {
		return err
	}
	report.Signatures = sigs

	return printJSON(report)
}
