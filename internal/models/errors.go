package models

import (
	"errors"
	"fmt"
)

// ErrAllCollectorsFailed is returned when no enabled source produced data
var ErrAllCollectorsFailed = errors.New("all collectors failed")

// CollectorError reports a failed fetch from a single platform
type CollectorError struct {
	Platform Platform
	Err      error
}

func (e *CollectorError) Error() string {
	return fmt.Sprintf("collector %s: %v", e.Platform, e.Err)
}

func (e *CollectorError) Unwrap() error {
	return e.Err
}

// ScoringError reports a sentiment scoring failure on one mention
type ScoringError struct {
	Platform Platform
	ID       string
	Err      error
}

func (e *ScoringError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("sentiment scoring: %v", e.Err)
	}
	return fmt.Sprintf("sentiment scoring %s/%s: %v", e.Platform, e.ID, e.Err)
}

func (e *ScoringError) Unwrap() error {
	return e.Err
}

// ExportError reports a failed report export
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
