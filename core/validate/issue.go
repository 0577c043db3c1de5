package validate

import (
	"fmt"

	"github.com/diagkit/mddc/core/document"
	"github.com/diagkit/mddc/core/errors"
)

// Issue codes. Errors are Exxx, warnings Wxxx. The codes are stable and
// part of the CLI output contract.
const (
	CodeUndefinedType          = "E001"
	CodeUndefinedSession       = "E002"
	CodeUndefinedSecurity      = "E003"
	CodeUndefinedAccessPattern = "E004"
	CodeUndefinedDID           = "E005"
	CodeDuplicateID            = "E100"
	CodeDuplicateName          = "E101"
	CodeDuplicateDIDAddress    = "E102"
	CodeValueOutOfRange        = "E200"
	CodeInvalidDIDAddress      = "E201"
	CodeInvalidSessionID       = "E202"
	CodeInvalidFormat          = "E300"
	CodeInvalidHex             = "E301"
	CodeInvalidDTCFormat       = "E302"
	CodeUnusedType             = "W001"
	CodeUnusedSession          = "W002"
	CodeMissingDescription     = "W003"
	CodeDeprecated             = "W004"
	CodeMismatchedSecurityPair = "W010"
)

// Severity classifies an issue.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", uint8(s))
	}
}

// Issue is one validation finding.
type Issue struct {
	Code       string
	Severity   Severity
	Message    string
	Path       string // Dotted path into the document
	Suggestion string // Optional remediation hint
}

func (i Issue) String() string {
	s := fmt.Sprintf("%s [%s] %s", i.Severity, i.Code, i.Message)
	if i.Path != "" {
		s += " (at " + i.Path + ")"
	}
	return s
}

// Result collects the findings of one validation run.
type Result struct {
	Issues []Issue
}

// AddError appends an error finding.
func (r *Result) AddError(code, message, path, suggestion string) {
	r.Issues = append(r.Issues, Issue{
		Code: code, Severity: SeverityError,
		Message: message, Path: path, Suggestion: suggestion,
	})
}

// AddWarning appends a warning finding.
func (r *Result) AddWarning(code, message, path, suggestion string) {
	r.Issues = append(r.Issues, Issue{
		Code: code, Severity: SeverityWarning,
		Message: message, Path: path, Suggestion: suggestion,
	})
}

// Errors returns only the error findings.
func (r *Result) Errors() []Issue { return r.bySeverity(SeverityError) }

// Warnings returns only the warning findings.
func (r *Result) Warnings() []Issue { return r.bySeverity(SeverityWarning) }

func (r *Result) bySeverity(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// Valid reports whether no errors were found. Warnings do not count.
func (r *Result) Valid() bool { return len(r.Errors()) == 0 }

// Err converts the result into an error suitable for aborting the
// pipeline: non-nil when errors exist, or when strict is set and any
// warning exists.
func (r *Result) Err(strict bool) error {
	nerr, nwarn := len(r.Errors()), len(r.Warnings())
	if nerr == 0 && (!strict || nwarn == 0) {
		return nil
	}
	msg := fmt.Sprintf("%d error(s), %d warning(s)", nerr, nwarn)
	if nerr == 0 {
		msg += " (strict mode)"
	}
	return errors.NewValidation("document", msg)
}

// checker is one validation pass. Checkers never mutate the document and
// never panic on malformed-but-loaded input.
type checker interface {
	check(doc *document.Document, r *Result)
}

// Validate runs every checker over the document and returns the combined
// result. Checkers run in a fixed order so output is stable.
func Validate(doc *document.Document) *Result {
	checkers := []checker{
		typeReferences{},
		sessionReferences{},
		securityReferences{},
		accessPatternReferences{},
		uniqueSessionIDs{},
		securityConsistency{},
		dtcFormat{},
		unusedDefinitions{},
	}
	r := new(Result)
	for _, c := range checkers {
		c.check(doc, r)
	}
	return r
}
