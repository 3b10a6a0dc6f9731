package cmd

import (
	"encoding/json"
	"fmt"

	"assessment_backend/internal/engine/ticks"

	"github.com/spf13/cobra"
)

var (
	ticksMin     int
	ticksMax     int
	ticksDesired int
	ticksValues  []int
)

var ticksCmd = &cobra.Command{
	Use:   "ticks",
	Short: "Print the slider ticks planned for a scale",
	Example: `  assessment-backend ticks --min 1 --max 100
  assessment-backend ticks --min 1 --max 5 --values 1,2,3,4,5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := ticks.PlanTicks(ticksMin, ticksMax, ticksValues, ticksDesired)
		b, err := json.Marshal(out)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return err
	},
}

func init() {
	ticksCmd.Flags().IntVar(&ticksMin, "min", 1, "scale minimum")
	ticksCmd.Flags().IntVar(&ticksMax, "max", 5, "scale maximum")
	ticksCmd.Flags().IntVar(&ticksDesired, "count", ticks.DefaultDesiredCount, "desired tick count")
	ticksCmd.Flags().IntSliceVar(&ticksValues, "values", nil, "explicit scale values")
}
