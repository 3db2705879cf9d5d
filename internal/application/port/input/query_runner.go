package input

import (
	"context"

	"campus-assistant/internal/domain/entity"
)

// QueryRunner is the sole entry point the CLI and HTTP layers call.
type QueryRunner interface {
	Run(ctx context.Context, question string, cfg entity.RunConfig) (*entity.RunResult, error)
}
