package pipeline

import (
	"context"
	"strings"

	"pipewise/internal/heuristic"
	"pipewise/internal/llm"
	"pipewise/internal/types"
	"pipewise/internal/util/jsonutil"
)

const promptSolution = `You are a DevOps and data engineering expert.
Given the error type, root cause, and error log in the input, provide a fix.

Return STRICT JSON ONLY:
{
  "steps":       "string",     // step-by-step solution
  "commands":    ["string"],   // exact shell commands to run, in order
  "explanation": "string",     // why this fixes the problem
  "prevention":  "string"      // how to avoid this in the future
}

Rules:
- commands must be runnable shell commands, one per array entry.
- Keep steps short and numbered.
- JSON only; no comments or surrounding prose.`

// SolutionStage turns the diagnosis into an actionable fix with commands.
type SolutionStage struct {
	LLM llm.Client
}

func (s *SolutionStage) Name() string       { return "solution" }
func (s *SolutionStage) Requires() []string { return []string{FieldErrorType, FieldRootCause} }
func (s *SolutionStage) Produces() []string { return []string{FieldSolution, FieldPrevention} }

type solutionOut struct {
	Steps       string   `json:"steps"`
	Commands    []string `json:"commands"`
	Explanation string   `json:"explanation"`
	Prevention  string   `json:"prevention"`
}

func (s *SolutionStage) Run(ctx context.Context, c *Context) Result {
	errType := types.ErrorType(c.String(FieldErrorType))
	input := map[string]any{
		"error_type": c.String(FieldErrorType),
		"root_cause": c.String(FieldRootCause),
		"error_log":  c.String(FieldErrorLog),
	}

	raw, err := s.LLM.Generate(ctx, promptSolution, input)
	if err != nil {
		sol, prevention := heuristic.FallbackSolution(errType, c.String(FieldErrorLog))
		return Degraded(solutionFields(sol, prevention), "model unavailable: "+err.Error())
	}

	var out solutionOut
	tier, perr := jsonutil.DecodeLoose(raw, &out)
	if perr == nil && strings.TrimSpace(out.Steps) != "" {
		sol := types.Solution{
			Steps:       strings.TrimSpace(out.Steps),
			Commands:    trimAll(out.Commands),
			Explanation: strings.TrimSpace(out.Explanation),
		}
		prevention := strings.TrimSpace(out.Prevention)
		if prevention == "" {
			prevention = "Review code before deployment."
		}
		if len(sol.Commands) == 0 {
			// Valid steps without commands: keep the model's reasoning but
			// fill the commands from the playbook.
			fb, _ := heuristic.FallbackSolution(errType, c.String(FieldErrorLog))
			sol.Commands = fb.Commands
			return Degraded(solutionFields(sol, prevention), "commands filled from playbook")
		}
		if tier == jsonutil.TierStrict {
			return Success(solutionFields(sol, prevention))
		}
		return Degraded(solutionFields(sol, prevention), "solution extracted from surrounding prose")
	}

	// Sectioned prose (SOLUTION / COMMANDS / ...) is the common non-JSON shape.
	sol, prevention := heuristic.ParseSolutionText(raw)
	if len(sol.Commands) == 0 {
		fb, fbPrev := heuristic.FallbackSolution(errType, c.String(FieldErrorLog))
		sol.Commands = fb.Commands
		if sol.Steps == "" {
			sol = fb
		}
		if prevention == "" {
			prevention = fbPrev
		}
	}
	if prevention == "" {
		prevention = "Review code before deployment."
	}
	return Degraded(solutionFields(sol, prevention), "solution parsed from sectioned text")
}

func solutionFields(sol types.Solution, prevention string) map[string]any {
	return map[string]any{
		FieldSolution:   sol,
		FieldPrevention: prevention,
	}
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
