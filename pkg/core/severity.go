package core

// =============================================================================
// Severity
// =============================================================================

// Severity indicates the importance of a lint diagnostic.
type Severity int

// Severity levels for diagnostics.
const (
	// SeverityError fails the lint task.
	SeverityError Severity = iota
	// SeverityWarning is reported but does not fail the task.
	SeverityWarning
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// MarshalText writes the severity by name in JSON output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// =============================================================================
// RuleInfo
// =============================================================================

// RuleInfo describes a lint rule for the rules listing.
type RuleInfo struct {
	ID              string   `json:"id"`
	Group           string   `json:"group"` // "style" or "script"
	Description     string   `json:"description"`
	DefaultSeverity Severity `json:"severity"`
	ConfigKeys      []string `json:"config_keys,omitempty"`

	BadExample  string `json:"bad_example,omitempty"`
	GoodExample string `json:"good_example,omitempty"`
}
