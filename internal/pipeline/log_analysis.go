package pipeline

import (
	"context"

	"pipewise/internal/heuristic"
	"pipewise/internal/llm"
	"pipewise/internal/types"
	"pipewise/internal/util/jsonutil"
)

const promptLogAnalysis = `You are a log analysis expert for data pipelines.
Analyze the error log in the input and identify the failure.

Return STRICT JSON ONLY:
{
  "error_type":    "string",  // exception class, e.g. PermissionError, ModuleNotFoundError, ConnectionError
  "error_message": "string",  // the exact failing log line
  "component":     "string"   // the file or task that failed, if identifiable
}

Rules:
- error_type must be a single exception class name, nothing else.
- Quote error_message verbatim from the log.
- JSON only; no comments or surrounding prose.`

// LogAnalysisStage classifies the failure from the raw error log.
type LogAnalysisStage struct {
	LLM llm.Client
}

func (s *LogAnalysisStage) Name() string       { return "log_analysis" }
func (s *LogAnalysisStage) Requires() []string { return []string{FieldErrorLog} }
func (s *LogAnalysisStage) Produces() []string { return []string{FieldErrorType, FieldErrorMatch} }

type logAnalysisOut struct {
	ErrorType    string `json:"error_type"`
	ErrorMessage string `json:"error_message"`
	Component    string `json:"component"`
}

func (s *LogAnalysisStage) Run(ctx context.Context, c *Context) Result {
	errorLog := c.String(FieldErrorLog)

	raw, err := s.LLM.Generate(ctx, promptLogAnalysis, map[string]any{"error_log": errorLog})
	if err != nil {
		cls := heuristic.ClassifyLog(errorLog)
		return Degraded(classificationFields(cls), "model unavailable: "+err.Error())
	}

	var out logAnalysisOut
	tier, perr := jsonutil.DecodeLoose(raw, &out)
	if perr == nil && validErrorType(out.ErrorType) {
		fields := map[string]any{
			FieldErrorType:  out.ErrorType,
			FieldErrorMatch: out.ErrorMessage,
		}
		if tier == jsonutil.TierStrict {
			return Success(fields)
		}
		return Degraded(fields, "classification extracted from surrounding prose")
	}

	// The model answered but not with a usable class; scan its prose, then
	// the log itself. Never returns an absent classification.
	cls := heuristic.ClassifyText(raw, errorLog)
	return Degraded(classificationFields(cls), "heuristic classification")
}

func classificationFields(cls types.Classification) map[string]any {
	return map[string]any{
		FieldErrorType:  string(cls.ErrorType),
		FieldErrorMatch: cls.Matched,
	}
}

func validErrorType(s string) bool {
	for _, et := range types.KnownErrorTypes {
		if s == string(et) {
			return true
		}
	}
	return false
}
