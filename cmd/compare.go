package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pandemic-sim/pandemic-analysis/analysis/compare"
)

var (
	compareA string
	compareB string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Print min / mean / max of every numeric column of two experiment CSVs side by side",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runCompare(cmd.OutOrStdout(), compareA, compareB); err != nil {
			logrus.Fatalf("Comparison failed: %v", err)
		}
	},
}

func runCompare(w io.Writer, a, b string) error {
	cmp, err := compare.ComparePaths(a, b)
	if err != nil {
		return err
	}
	logrus.Debugf("compared %d columns of %s and %s", len(cmp.Rows), a, b)
	return cmp.Write(w)
}

func init() {
	compareCmd.Flags().StringVar(&compareA, "a", "", "First experiment CSV (.csv appended if absent)")
	compareCmd.Flags().StringVar(&compareB, "b", "", "Second experiment CSV (.csv appended if absent)")
	_ = compareCmd.MarkFlagRequired("a")
	_ = compareCmd.MarkFlagRequired("b")

	rootCmd.AddCommand(compareCmd)
}
