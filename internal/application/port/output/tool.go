package output

import (
	"context"

	"campus-assistant/internal/domain/entity"
)

type ToolPort interface {
	Name() string
	Description() string
	// Execute runs the tool and returns the observation text the model will
	// see plus the normalized result the runner's policy operates on.
	Execute(ctx context.Context, input string) (string, *entity.ToolResult, error)
}

type ToolRegistry interface {
	Register(tool ToolPort)
	Get(name string) (ToolPort, bool)
	Names() map[string]bool
}
