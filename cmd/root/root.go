package root

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/operator-framework/fsplan/cmd/hanoi"
	"github.com/operator-framework/fsplan/cmd/solve"
)

func NewRootCmd() *cobra.Command {
	log := logrus.New()
	var level string

	rootCmd := &cobra.Command{
		Use:   "fsplan",
		Short: "fsplan is a classical planner over multi-valued state variables",
		Long: `A classical planner written in Go. It searches ground planning problems
with breadth-first search, greedy best-first search guided by relaxed plans,
iterated width and best-first width search.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(level)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			log.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&level, "log-level", "warn", "logging level (panic, fatal, error, warn, info, debug, trace)")

	// add sub-commands
	rootCmd.AddCommand(solve.NewSolveCommand(log))
	rootCmd.AddCommand(hanoi.NewHanoiCommand(log))

	return rootCmd
}
