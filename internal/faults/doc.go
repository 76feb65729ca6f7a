// Package faults classifies export failures and keeps their history.
//
// Errors produced by the export pipeline are tagged with one of the exported
// markers (ErrValidation, ErrSetup, ErrEncode, ErrCancelled) through Wrap, so
// the controller can decide with errors.Is whether a failure may be retried.
// Classify and Suggestions map raw error text to a category and an ordered list
// of remediation steps that are shown to the user. History records every
// failure in arrival order until it is cleared.
package faults
