package guardrail

import "pipewise/internal/types"

// FilterChecks drops checks whose check_type or severity is outside the
// enumerated sets and deduplicates by (column, check_type), keeping the first
// occurrence. The result is never nil.
func FilterChecks(in []types.QualityCheck) []types.QualityCheck {
	out := make([]types.QualityCheck, 0, len(in))
	seen := map[[2]string]bool{}
	for _, c := range in {
		if !types.ValidCheckType(c.CheckType) || !types.ValidSeverity(c.Severity) {
			continue
		}
		key := [2]string{c.Column, string(c.CheckType)}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
