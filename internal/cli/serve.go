package cli

import (
	"campus-assistant/internal/di"
	"campus-assistant/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistant over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := di.NewContainer(cmd.Context(), containerConfig())
			if err != nil {
				return err
			}
			defer container.Close()

			srv := server.New(container.Runner, container.Logger, container.RunConfig)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
