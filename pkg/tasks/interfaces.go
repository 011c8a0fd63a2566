package tasks

import (
	"context"

	"pickupwatch/pkg/apple"
	"pickupwatch/pkg/progress"
)

// Checker performs one availability lookup.
type Checker interface {
	Check(ctx context.Context, sel apple.Selection) (*apple.CheckResult, error)
}

// Reporter receives progress states as a check moves along. Persist ends
// the current status line before other output is written.
type Reporter interface {
	Render(s progress.State)
	Persist()
}

// Runner is the unit the scheduler invokes.
type Runner interface {
	Run(ctx context.Context) (*Outcome, error)
}
