package cli

import (
	"fmt"

	"campus-assistant/internal/di"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var seedPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the YAML dataset into the knowledge base",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := di.NewContainer(cmd.Context(), containerConfig())
			if err != nil {
				return err
			}
			defer container.Close()

			if err := container.Store.Seed(cmd.Context(), seedPath); err != nil {
				return err
			}
			fmt.Println("knowledge base seeded from", seedPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&seedPath, "file", "./data/knowledge.yaml", "seed file path")
	return cmd
}
