// Package docmerge provides custom error types for better error handling
// and reporting. Fatal errors abort the whole merge; a failed merge must
// surface the offending path, section, or condition verbatim so a template
// author can fix the template without inspecting internals.
package docmerge

import "fmt"

// ExpressionError represents a malformed or unevaluable condition. It is
// recovered internally: the condition evaluates to false and the error is
// recorded as a warning. See EvaluateCondition for the named policy.
type ExpressionError struct {
	Expression string
	Cause      error
}

func (e *ExpressionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("expression error in '%s': %v", e.Expression, e.Cause)
	}
	return fmt.Sprintf("expression error in '%s'", e.Expression)
}

func (e *ExpressionError) Unwrap() error {
	return e.Cause
}

// NewExpressionError creates a new expression error.
func NewExpressionError(expression string, cause error) error {
	return &ExpressionError{Expression: expression, Cause: cause}
}

// UnresolvedFieldError represents a field reference with no value and no
// default. It is fatal: no partial document is ever produced.
type UnresolvedFieldError struct {
	Path string
}

func (e *UnresolvedFieldError) Error() string {
	return fmt.Sprintf("unresolved field '%s': no value in merge context and no default given", e.Path)
}

// NewUnresolvedFieldError creates a new unresolved field error.
func NewUnresolvedFieldError(path string) error {
	return &UnresolvedFieldError{Path: path}
}

// MissingSectionDataError represents a repeater whose bound collection is
// absent, empty, or not a list. It is fatal: optional repeaters must be
// guarded with conditionals rather than relying on silent omission.
type MissingSectionDataError struct {
	Section string
}

func (e *MissingSectionDataError) Error() string {
	return fmt.Sprintf("repeater section '%s' has no data: bound collection is absent, empty, or not a list", e.Section)
}

// NewMissingSectionDataError creates a new missing section data error.
func NewMissingSectionDataError(section string) error {
	return &MissingSectionDataError{Section: section}
}

// UnclosedBlockError represents a block-level IF with no matching /IF
// among its siblings. Fatal.
type UnclosedBlockError struct {
	Condition string
}

func (e *UnclosedBlockError) Error() string {
	return fmt.Sprintf("block conditional 'IF %s' has no matching /IF among its siblings", e.Condition)
}

// NewUnclosedBlockError creates a new unclosed block error.
func NewUnclosedBlockError(condition string) error {
	return &UnclosedBlockError{Condition: condition}
}

// UnterminatedSectionError represents a repeater marker that survived
// every pipeline stage, typically an opener and closer split across
// paragraphs or rows. Fatal: a leftover marker would otherwise reach the
// final document as literal text.
type UnterminatedSectionError struct {
	Section string
}

func (e *UnterminatedSectionError) Error() string {
	return fmt.Sprintf("repeater section '%s' was not expanded: open and close markers must share one paragraph or table row", e.Section)
}

// NewUnterminatedSectionError creates a new unterminated section error.
func NewUnterminatedSectionError(section string) error {
	return &UnterminatedSectionError{Section: section}
}

// IterationLimitError represents inline conditional resolution exceeding
// its iteration cap, guarding against malformed or runaway nesting. Fatal.
type IterationLimitError struct {
	Limit int
}

func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("inline conditional resolution exceeded %d passes: malformed or runaway nesting", e.Limit)
}

// NewIterationLimitError creates a new iteration limit error.
func NewIterationLimitError(limit int) error {
	return &IterationLimitError{Limit: limit}
}

// IsExpressionError checks if an error is an expression error
func IsExpressionError(err error) bool {
	_, ok := err.(*ExpressionError)
	return ok
}

// IsUnresolvedFieldError checks if an error is an unresolved field error
func IsUnresolvedFieldError(err error) bool {
	_, ok := err.(*UnresolvedFieldError)
	return ok
}

// IsMissingSectionDataError checks if an error is a missing section data error
func IsMissingSectionDataError(err error) bool {
	_, ok := err.(*MissingSectionDataError)
	return ok
}

// IsUnclosedBlockError checks if an error is an unclosed block error
func IsUnclosedBlockError(err error) bool {
	_, ok := err.(*UnclosedBlockError)
	return ok
}

// IsUnterminatedSectionError checks if an error is an unterminated section error
func IsUnterminatedSectionError(err error) bool {
	_, ok := err.(*UnterminatedSectionError)
	return ok
}

// IsIterationLimitError checks if an error is an iteration limit error
func IsIterationLimitError(err error) bool {
	_, ok := err.(*IterationLimitError)
	return ok
}

// Warning is a non-fatal condition collected during a merge and returned
// alongside a successful result.
type Warning struct {
	Code    string
	Section string
	Message string
}

func (w Warning) String() string {
	if w.Section != "" {
		return fmt.Sprintf("[%s] %s: %s", w.Code, w.Section, w.Message)
	}
	return fmt.Sprintf("[%s] %s", w.Code, w.Message)
}

// Warning codes.
const (
	WarnExpression   = "expression"
	WarnRepeaterSize = "repeater-size"
)
