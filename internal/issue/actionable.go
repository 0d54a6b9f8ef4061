// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// Catalogued is implemented by errors that point at an entry of the
	// issue catalog.
	Catalogued interface {
		error
		CatalogId() Id
	}

	// ActionableError is a CLI-facing failure: what lintcage was doing, the
	// file it was doing it to, how to recover, and optionally the catalog
	// entry that explains the failure at length.
	//
	//	err := issue.NewErrorContext().
	//		WithIssue(issue.ConfigLoadFailedId).
	//		WithOperation("load configuration").
	//		WithResource("./lintcage.cue").
	//		WithSuggestion("Run 'lintcage config init' to create one").
	//		Wrap(cause).
	//		BuildError()
	ActionableError struct {
		// Issue is the catalog entry rendered above the error. Zero means none.
		Issue Id

		// Operation is a verb phrase such as "load configuration".
		Operation string

		// Resource is the file or container involved (optional).
		Resource string

		// Suggestions are recovery hints (optional).
		Suggestions []string

		// Cause is the underlying error (optional).
		Cause error
	}

	// ErrorContext builds an ActionableError step by step.
	ErrorContext struct {
		issue       Id
		operation   string
		resource    string
		suggestions []string
		cause       error
	}
)

// IdOf returns the first non-zero catalog id found along err's chain.
func IdOf(err error) Id {
	for err != nil {
		if c, ok := err.(Catalogued); ok && c.CatalogId() != 0 {
			return c.CatalogId()
		}
		err = errors.Unwrap(err)
	}
	return 0
}

// Error returns "failed to <operation>: <resource>: <cause>".
func (e *ActionableError) Error() string {
	var msg strings.Builder

	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)
	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}
	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}
	return msg.String()
}

// Unwrap returns the cause.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// CatalogId implements Catalogued.
func (e *ActionableError) CatalogId() Id {
	return e.Issue
}

// HasSuggestions reports whether any recovery hint is attached.
func (e *ActionableError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// Format renders the error followed by its suggestions as a bullet list.
// With verbose set, the unwrapped cause chain is appended, one numbered
// line per link.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder

	msg.WriteString(e.Error())
	if len(e.Suggestions) > 0 {
		msg.WriteString("\n")
		for _, suggestion := range e.Suggestions {
			msg.WriteString("\n  • ")
			msg.WriteString(suggestion)
		}
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		depth := 1
		for err := e.Cause; err != nil; err = errors.Unwrap(err) {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
			depth++
		}
	}
	return msg.String()
}

// NewErrorContext starts an empty builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// WithIssue links the error to a catalog entry.
func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	c.issue = id
	return c
}

// WithOperation sets the operation being performed.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.operation = op
	return c
}

// WithResource sets the file or container involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.resource = res
	return c
}

// WithSuggestion appends a recovery hint.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.suggestions = append(c.suggestions, sug)
	return c
}

// Wrap sets the underlying cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.cause = err
	return c
}

// Build returns the ActionableError, or nil when no operation was set.
func (c *ErrorContext) Build() *ActionableError {
	if c.operation == "" {
		return nil
	}
	return &ActionableError{
		Issue:       c.issue,
		Operation:   c.operation,
		Resource:    c.resource,
		Suggestions: c.suggestions,
		Cause:       c.cause,
	}
}

// BuildError is Build typed as error, so a missing operation yields an
// untyped nil instead of a nil *ActionableError.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}
