package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestConfigErrorIsErrConfig(t *testing.T) {
	err := fmt.Errorf("loading: %w", &ConfigError{Field: "embed_llm.key", Reason: "is required"})
	if !errors.Is(err, ErrConfig) {
		t.Fatal("wrapped ConfigError should match ErrConfig")
	}
	if errors.Is(err, ErrMissingIndex) {
		t.Fatal("ConfigError must not match ErrMissingIndex")
	}
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")

	extractErr := &ExtractionError{Document: "a.pdf", Err: cause}
	if !errors.Is(extractErr, cause) {
		t.Error("ExtractionError should unwrap to its cause")
	}
	if !strings.Contains(extractErr.Error(), "a.pdf") {
		t.Errorf("Error() = %q, want document name", extractErr.Error())
	}

	serviceErr := &ServiceError{Service: "embedding", Model: "embedding-001", Err: cause}
	if !errors.Is(serviceErr, cause) {
		t.Error("ServiceError should unwrap to its cause")
	}
	if !strings.Contains(serviceErr.Error(), "embedding-001") {
		t.Errorf("Error() = %q, want model name", serviceErr.Error())
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"extraction", &ExtractionError{Document: "scan.pdf", Err: errors.New("bad xref")}, `Could not read "scan.pdf"`},
		{"missing index", fmt.Errorf("retrieve: %w", ErrMissingIndex), "No documents have been processed yet"},
		{"mismatch", ErrIndexMismatch, "different embedding model"},
		{"no chunks", ErrNoChunks, "No text could be extracted"},
		{"empty question", ErrEmptyQuestion, "Please enter a question"},
		{"service", &ServiceError{Service: "generation", Err: errors.New("429")}, "The generation service is unavailable"},
		{"config", &ConfigError{Field: "inference_llm.key", Reason: "is required"}, "Configuration problem: inference_llm.key is required"},
		{"other", errors.New("disk full"), "Something went wrong: disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UserMessage(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("UserMessage() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("UserMessage() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestPromptResponseRender(t *testing.T) {
	r := &PromptResponse{Query: "q", Content: "  The answer.\n"}
	got := r.Render()
	want := "The answer." + Disclaimer
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
	if !strings.HasSuffix(got, "please verify the answers from the original sources") {
		t.Error("Render() should end with the disclaimer")
	}
}

func TestAnswerPromptTemplateMentionsFallback(t *testing.T) {
	for _, part := range []string{"{{.context}}", "{{.question}}", FallbackAnswer} {
		if !strings.Contains(AnswerPromptTemplate, part) {
			t.Errorf("AnswerPromptTemplate missing %q", part)
		}
	}
}
