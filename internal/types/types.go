package types

import "time"

// Error classification ------------------------------------------------------------

// ErrorType is a closed set of pipeline failure classes. Logs that match none
// of the known classes are reported as ErrUnknown, never as an empty value.
type ErrorType string

const (
	ErrPermission     ErrorType = "PermissionError"
	ErrModuleNotFound ErrorType = "ModuleNotFoundError"
	ErrImport         ErrorType = "ImportError"
	ErrConnection     ErrorType = "ConnectionError"
	ErrFileNotFound   ErrorType = "FileNotFoundError"
	ErrSyntax         ErrorType = "SyntaxError"
	ErrValue          ErrorType = "ValueError"
	ErrKey            ErrorType = "KeyError"
	ErrType           ErrorType = "TypeError"
	ErrAttribute      ErrorType = "AttributeError"
	ErrUnknown        ErrorType = "UnknownError"
)

// KnownErrorTypes lists every class a classifier may emit, in scan priority
// order (ErrUnknown excluded; it is the catch-all).
var KnownErrorTypes = []ErrorType{
	ErrPermission,
	ErrModuleNotFound,
	ErrImport,
	ErrConnection,
	ErrFileNotFound,
	ErrSyntax,
	ErrValue,
	ErrKey,
	ErrType,
	ErrAttribute,
}

// Classification is the outcome of log analysis.
type Classification struct {
	ErrorType ErrorType `json:"error_type"`
	// Matched is the raw substring of the log that triggered the class.
	Matched   string `json:"matched"`
	Component string `json:"component,omitempty"`
}

// Diagnosis pairs the error class with its free-text root cause.
type Diagnosis struct {
	ErrorType string `json:"error_type"`
	RootCause string `json:"root_cause"`
}

// Solution ------------------------------------------------------------------------

type Solution struct {
	Steps       string   `json:"steps"`
	Commands    []string `json:"commands"`
	Explanation string   `json:"explanation"`
}

// SQL -----------------------------------------------------------------------------

// SQLQuery is a validated read-only statement plus the identifiers it touches.
type SQLQuery struct {
	Statement string   `json:"statement"`
	Tables    []string `json:"tables"`
	Columns   []string `json:"columns"`
}

// Column is one schema column in declaration order.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Quality checks --------------------------------------------------------------------

type CheckType string

const (
	CheckNull       CheckType = "null_check"
	CheckRange      CheckType = "range_check"
	CheckUniqueness CheckType = "uniqueness_check"
	CheckTypeOf     CheckType = "type_check"
	CheckFreshness  CheckType = "freshness_check"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

type QualityCheck struct {
	CheckID     string    `json:"check_id"`
	Column      string    `json:"column"`
	CheckType   CheckType `json:"check_type"`
	Severity    Severity  `json:"severity"`
	Description string    `json:"description"`
	CodeSnippet string    `json:"code_snippet,omitempty"`
}

// ValidCheckType reports whether t is in the enumerated set.
func ValidCheckType(t CheckType) bool {
	switch t {
	case CheckNull, CheckRange, CheckUniqueness, CheckTypeOf, CheckFreshness:
		return true
	}
	return false
}

// ValidSeverity reports whether s is in the enumerated set.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Stage outcomes --------------------------------------------------------------------

// Outcome tags how a stage produced its fields.
type Outcome string

const (
	// OutcomeSuccess: fields came from a parsed model response.
	OutcomeSuccess Outcome = "success"
	// OutcomeDegraded: fields came from the rule-based fallback.
	OutcomeDegraded Outcome = "degraded"
	// OutcomeFatal: the stage could not produce fields; the run halts.
	OutcomeFatal Outcome = "fatal"
)

// TrailEntry records one stage execution for the audit trail.
type TrailEntry struct {
	Stage    string        `json:"stage"`
	Outcome  Outcome       `json:"outcome"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Trail is the ordered audit trail of one pipeline run.
type Trail []TrailEntry
