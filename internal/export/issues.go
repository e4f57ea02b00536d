package export

import "fmt"

// IssueType categorizes a degraded export cell.
type IssueType int

const (
	IssueUnknown IssueType = iota
	IssueMissingPage
	IssueNoWord
	IssueEmptyRegion
	IssueUnknownMode
	IssueResolverPanic
	IssueCancelled
	IssueMissingDocument
)

// Severity indicates how much an issue matters to the caller.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (t IssueType) String() string {
	switch t {
	case IssueMissingPage:
		return "MISSING_PAGE"
	case IssueNoWord:
		return "NO_WORD"
	case IssueEmptyRegion:
		return "EMPTY_REGION"
	case IssueUnknownMode:
		return "UNKNOWN_MODE"
	case IssueResolverPanic:
		return "RESOLVER_PANIC"
	case IssueCancelled:
		return "CANCELLED"
	case IssueMissingDocument:
		return "MISSING_DOCUMENT"
	default:
		return "UNKNOWN"
	}
}

// Severity returns the severity for the issue type.
func (t IssueType) Severity() Severity {
	switch t {
	case IssueEmptyRegion, IssueNoWord:
		return SeverityInfo
	case IssueMissingPage, IssueCancelled:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Issue describes one degraded cell.
type Issue struct {
	Type     IssueType `json:"type"`
	Document string    `json:"document"`
	Selector string    `json:"selector,omitempty"`
	Message  string    `json:"message"`
}

func (i Issue) Error() string {
	if i.Selector == "" {
		return fmt.Sprintf("[%s] %s: %s", i.Type, i.Document, i.Message)
	}
	return fmt.Sprintf("[%s] %s / %s: %s", i.Type, i.Document, i.Selector, i.Message)
}

// Issues collects per-cell degradations of one run, split by severity.
type Issues struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Add files issue by its severity. Info level issues are kept as warnings.
func (c *Issues) Add(issue Issue) {
	if issue.Type.Severity() == SeverityError {
		c.Errors = append(c.Errors, issue)
		return
	}
	c.Warnings = append(c.Warnings, issue)
}

// Merge appends every issue of other.
func (c *Issues) Merge(other Issues) {
	c.Errors = append(c.Errors, other.Errors...)
	c.Warnings = append(c.Warnings, other.Warnings...)
}

// Count returns the number of errors and warnings.
func (c *Issues) Count() (errors, warnings int) {
	return len(c.Errors), len(c.Warnings)
}

// Summary returns a one-line description of the collection.
func (c *Issues) Summary() string {
	errorCount, warningCount := c.Count()
	if errorCount == 0 && warningCount == 0 {
		return "No errors or warnings"
	}
	return fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)
}
