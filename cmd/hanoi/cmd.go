package hanoi

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/operator-framework/fsplan/cmd/solve"
	"github.com/operator-framework/fsplan/internal/domains"
	"github.com/operator-framework/fsplan/pkg/fsplan/planner"
)

func NewHanoiCommand(log logrus.FieldLogger) *cobra.Command {
	var (
		disks     int
		algorithm string
		portfolio []string
	)
	cmd := &cobra.Command{
		Use:   "hanoi",
		Short: "Plans a Towers of Hanoi instance",
		Long: `Plans the Towers of Hanoi with the given number of disks, all starting
on peg 0 and to be moved to peg 2. Disk 0 is the smallest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			problem, err := domains.Hanoi(disks)
			if err != nil {
				return err
			}
			config := planner.DefaultConfig()
			config.Algorithm = algorithm
			if err := config.Validate(); err != nil {
				return fmt.Errorf("hanoi: %w", err)
			}
			return solve.Run(cmd, problem, config, portfolio, planner.WithLogger(log))
		},
	}
	cmd.Flags().IntVarP(&disks, "disks", "n", 3, "number of disks")
	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "bfws", "search algorithm: bfs, gbfs, iw or bfws")
	cmd.Flags().StringSliceVar(&portfolio, "portfolio", nil, "run these algorithms concurrently and report the first plan")
	return cmd
}
