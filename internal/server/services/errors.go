package services

import (
	"context"

	"github.com/dmitrijs2005/streamkeeper/internal/common"
	"github.com/dmitrijs2005/streamkeeper/internal/logging"
)

// serviceError passes *common.Error values through and replaces anything
// else with common.ErrorInternal after logging it, so driver messages never
// reach callers.
func serviceError(ctx context.Context, log logging.Logger, op string, err error) error {
	if err == nil {
		return nil
	}
	if e := common.AsError(err); e != common.ErrorInternal {
		return e
	}
	log.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}
