package cli

import (
	"fmt"
	"strings"

	"campus-assistant/internal/di"
	"campus-assistant/internal/domain/entity"

	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			container, err := di.NewContainer(cmd.Context(), containerConfig())
			if err != nil {
				return err
			}
			defer container.Close()

			result, err := container.Runner.Run(cmd.Context(), question, container.RunConfig)
			if err != nil {
				return err
			}

			fmt.Println(result.AnswerText)
			if len(result.Citations) > 0 {
				fmt.Println("\nSources:")
				for _, url := range result.Citations {
					fmt.Println("  " + url)
				}
			}
			if result.Reason != entity.TerminationDone {
				fmt.Printf("\n(terminated: %s after %d iterations)\n", result.Reason, result.Iterations)
			}
			if debug {
				fmt.Println("\nTranscript:")
				for _, s := range result.Transcript.Steps {
					line := string(s.Kind) + ": " + s.Text
					if s.Kind == entity.StepAction {
						line = fmt.Sprintf("action: %s(%s)", s.ToolName, s.ToolInput)
					}
					fmt.Println("  " + line)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "print the full reasoning transcript")
	return cmd
}
