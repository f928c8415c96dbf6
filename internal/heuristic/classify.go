// Package heuristic is the rule-based bottom tier of the output parser.
// Everything here works from raw text alone and never fails: when the model
// is unreachable or returns garbage, these functions still produce a usable,
// explicitly lower-confidence value.
package heuristic

import (
	"regexp"
	"strings"

	"pipewise/internal/types"
)

var reFailingFile = regexp.MustCompile(`File "([^"]+)"`)

// ClassifyLog scans an error log for known exception names and returns the
// class plus the log line that matched. Unmatched logs classify as
// UnknownError with an empty match, never as an absent value.
func ClassifyLog(errorLog string) types.Classification {
	component := ""
	if m := reFailingFile.FindStringSubmatch(errorLog); m != nil {
		component = m[1]
	}
	for _, line := range strings.Split(errorLog, "\n") {
		for _, et := range types.KnownErrorTypes {
			if strings.Contains(line, string(et)) {
				return types.Classification{
					ErrorType: et,
					Matched:   strings.TrimSpace(line),
					Component: component,
				}
			}
		}
	}
	return types.Classification{ErrorType: types.ErrUnknown, Component: component}
}

// ClassifyText is ClassifyLog applied to model prose: it additionally honors
// an "Error Type: X" line, the format the log-analysis prompt asks for.
func ClassifyText(modelText, errorLog string) types.Classification {
	for _, line := range strings.Split(modelText, "\n") {
		clean := strings.TrimSpace(line)
		if rest, ok := cutPrefixFold(clean, "error type:"); ok {
			candidate := strings.TrimSpace(rest)
			for _, et := range types.KnownErrorTypes {
				if strings.Contains(candidate, string(et)) {
					return types.Classification{ErrorType: et, Matched: clean}
				}
			}
		}
		for _, et := range types.KnownErrorTypes {
			if strings.Contains(clean, string(et)) {
				return types.Classification{ErrorType: et, Matched: clean}
			}
		}
	}
	// The model said nothing recognizable; fall back to the log itself.
	return ClassifyLog(errorLog)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return "", false
}
