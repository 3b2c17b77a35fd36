package analysis

import "strings"

// Error codes that identify a classification regardless of message wording.
var (
	programmingCodes = map[string]bool{
		"TYPE_ERROR": true,
		"ERR_TYPE":   true,
	}
	connectionCodes = map[string]bool{
		"ECONNREFUSED":       true,
		"CONNECTION_REFUSED": true,
	}
	timeoutCodes = map[string]bool{
		"ETIMEDOUT":         true,
		"ESOCKETTIMEDOUT":   true,
		"TIMEOUT":           true,
		"DEADLINE_EXCEEDED": true,
	}
)

// Message fragments that mark a programming-logic fault.
var programmingMarkers = []string{
	"type mismatch",
	"typeerror",
	"is not a function",
	"nil pointer dereference",
	"index out of range",
}

// Classify derives the type, severity, and domain of an error. It is a total
// function: every input yields a classification, unknown/medium at worst.
// Rules are evaluated in priority order, first match wins; the critical flag
// overrides the type-derived severity afterwards.
func Classify(rec ErrorRecord, actx *AnalysisContext) ErrorClassification {
	cls := ErrorClassification{
		Type:     ErrorTypeUnknown,
		Severity: SeverityMedium,
		Domain:   "unknown",
	}

	source := ""
	if actx != nil {
		source = actx.Source
	}
	if source != "" {
		cls.Domain = source
	}

	msg := strings.ToLower(rec.Message)
	code := strings.ToUpper(rec.Code)

	switch {
	case isProgrammingFault(msg, code):
		cls.Type = ErrorTypeProgramming
		cls.Severity = SeverityHigh
	case connectionCodes[code]:
		cls.Type = ErrorTypeConnection
		cls.Severity = SeverityHigh
	case timeoutCodes[code]:
		cls.Type = ErrorTypeTimeout
		cls.Severity = SeverityHigh
	case strings.Contains(msg, "database"):
		cls.Type = ErrorTypeDatabase
		cls.Severity = SeverityHigh
		if source == "" {
			cls.Domain = "database"
		}
	case strings.Contains(msg, "validation"):
		cls.Type = ErrorTypeValidation
		cls.Severity = SeverityMedium
	}

	if rec.Critical {
		cls.Severity = SeverityCritical
	}
	return cls
}

func isProgrammingFault(msg, code string) bool {
	if programmingCodes[code] {
		return true
	}
	for _, marker := range programmingMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
