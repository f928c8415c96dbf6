package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"pipewise/internal/llm"
	"pipewise/internal/types"
)

// ContractError reports a stage scheduled before its dependencies exist in
// the context. This is a programming/configuration fault, not a runtime
// failure, and is surfaced distinctly from a failed diagnosis.
type ContractError struct {
	Stage   string
	Missing []string
}

func (e *ContractError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("pipeline: stage %s violated the append-only contract", e.Stage)
	}
	return fmt.Sprintf("pipeline: stage %s missing required fields: %s",
		e.Stage, strings.Join(e.Missing, ", "))
}

// PipelineError reports a fatal stage outcome. The partial context and trail
// accumulated before the halt remain available to the caller.
type PipelineError struct {
	Stage  string
	Reason string
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline: stage %s failed: %s", e.Stage, e.Reason)
}

// Runner drives stages in declared order over a shared context.
type Runner struct {
	Log *log.Logger
}

// Run executes the stages sequentially. Each stage's required fields are
// asserted before it runs; success and degraded outcomes merge fields and
// continue, fatal outcomes halt. The trail always covers every stage that
// ran, halted or not.
func (r *Runner) Run(ctx context.Context, stages []Stage, c *Context) (types.Trail, error) {
	logger := r.Log
	if logger == nil {
		logger = log.Default()
	}

	trail := make(types.Trail, 0, len(stages))
	for _, st := range stages {
		if missing := c.Missing(st.Requires()...); len(missing) > 0 {
			return trail, &ContractError{Stage: st.Name(), Missing: missing}
		}

		start := time.Now()
		res := st.Run(llm.WithPhase(ctx, st.Name()), c)
		entry := types.TrailEntry{
			Stage:    st.Name(),
			Outcome:  res.Outcome,
			Reason:   res.Reason,
			Duration: time.Since(start),
		}
		trail = append(trail, entry)
		logger.Printf("stage %s: %s (%s)", st.Name(), res.Outcome, entry.Duration.Round(time.Millisecond))

		if res.Outcome == types.OutcomeFatal {
			return trail, &PipelineError{Stage: st.Name(), Reason: res.Reason}
		}
		if err := c.merge(res.Fields); err != nil {
			return trail, &ContractError{Stage: st.Name(), Missing: nil}
		}
	}
	return trail, nil
}
