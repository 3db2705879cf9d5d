package cli

import (
	"fmt"

	"campus-assistant/internal/di"
	"campus-assistant/internal/usecase/evaluator"

	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	var casePath string

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run the evaluation cases and report accuracy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cases, err := evaluator.LoadCases(casePath)
			if err != nil {
				return err
			}

			container, err := di.NewContainer(cmd.Context(), containerConfig())
			if err != nil {
				return err
			}
			defer container.Close()

			ev := evaluator.New(container.Runner, container.Logger, container.RunConfig)
			report, err := ev.Run(cmd.Context(), cases)
			if err != nil {
				return err
			}

			fmt.Print(report.Format())
			return nil
		},
	}

	cmd.Flags().StringVar(&casePath, "cases", "./data/evalcases.yaml", "evaluation case file")
	return cmd
}
