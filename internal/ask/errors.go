package ask

import (
	"fmt"
	"strings"
)

type Stage string

const (
	StageConfiguration Stage = "configuration"
	StageGeneration    Stage = "generation"
	StageExecution     Stage = "execution"
	StageSanitization  Stage = "sanitization"
)

// ConfigurationError means a prerequisite is missing; the completion service
// is never called when it is returned.
type ConfigurationError struct {
	Missing []string
	Err     error
}

func (e *ConfigurationError) Error() string {
	message := "service is not configured: missing " + strings.Join(e.Missing, ", ")
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", message, e.Err)
	}
	return message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Error is returned by Service.Ask. SQL is set once a statement was
// generated, so callers can show which statement failed.
type Error struct {
	Stage Stage
	SQL   string
	Err   error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
