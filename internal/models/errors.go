package models

import (
	"errors"
	"fmt"
)

var (
	ErrMissingIndex  = errors.New("no document index has been built yet")
	ErrConfig        = errors.New("invalid configuration")
	ErrNoChunks      = errors.New("no text could be extracted from the uploaded documents")
	ErrEmptyQuestion = errors.New("question is empty")
	ErrIndexMismatch = errors.New("index was built with a different embedding model")
)

// ExtractionError is returned when a document cannot be parsed.
type ExtractionError struct {
	Document string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %q: %v", e.Document, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ServiceError wraps a failed call to the embedding or generation service.
type ServiceError struct {
	Service string
	Model   string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s service (%s) failed: %v", e.Service, e.Model, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ConfigError reports an invalid or missing configuration value.
// errors.Is(err, ErrConfig) holds for every ConfigError.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// UserMessage converts a pipeline error into a sentence fit for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var extractErr *ExtractionError
	var serviceErr *ServiceError
	var configErr *ConfigError
	switch {
	case errors.As(err, &extractErr):
		return fmt.Sprintf("Could not read %q. Make sure it is a valid, text-based document.", extractErr.Document)
	case errors.Is(err, ErrMissingIndex):
		return "No documents have been processed yet. Upload PDF files and process them first."
	case errors.Is(err, ErrIndexMismatch):
		return "The stored index was built with a different embedding model. Process the documents again."
	case errors.Is(err, ErrNoChunks):
		return "No text could be extracted from the uploaded documents."
	case errors.Is(err, ErrEmptyQuestion):
		return "Please enter a question."
	case errors.As(err, &serviceErr):
		return fmt.Sprintf("The %s service is unavailable or returned an error. Please try again later.", serviceErr.Service)
	case errors.As(err, &configErr):
		return fmt.Sprintf("Configuration problem: %s %s.", configErr.Field, configErr.Reason)
	default:
		return "Something went wrong: " + err.Error()
	}
}
