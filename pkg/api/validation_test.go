package api

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePrompt(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		wantErr bool
	}{
		{name: "valid prompt", prompt: "What is the weather?", wantErr: false},
		{name: "empty", prompt: "", wantErr: true},
		{name: "whitespace only", prompt: "   \n\t", wantErr: true},
		{name: "at limit", prompt: strings.Repeat("a", MaxPromptLength), wantErr: false},
		{name: "over limit", prompt: strings.Repeat("a", MaxPromptLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrompt(tt.prompt)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePrompt() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("expected *APIError, got %T", err)
				}
				if apiErr.Type != ErrorTypeInvalidRequest {
					t.Errorf("error type = %s, want %s", apiErr.Type, ErrorTypeInvalidRequest)
				}
				if apiErr.Param != "prompt" {
					t.Errorf("error param = %s, want prompt", apiErr.Param)
				}
			}
		})
	}
}

func TestValidateRuntimeSessionID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "empty is allowed", id: "", wantErr: false},
		{name: "too short", id: "short-session-id", wantErr: true},
		{name: "exactly 33", id: strings.Repeat("x", 33), wantErr: false},
		{name: "longer", id: NewRuntimeSessionID(), wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRuntimeSessionID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRuntimeSessionID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "uuid style", id: "3f6b1c1e-9a2b-4c3d-8e4f-5a6b7c8d9e0f", wantErr: false},
		{name: "with underscore", id: "demo_session_1", wantErr: false},
		{name: "empty", id: "", wantErr: true},
		{name: "whitespace", id: "  ", wantErr: true},
		{name: "illegal characters", id: "session/../etc", wantErr: true},
		{name: "too long", id: strings.Repeat("a", MaxSessionIDLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSessionID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		name    string
		lang    string
		want    string
		wantErr bool
	}{
		{name: "empty defaults to python", lang: "", want: "python"},
		{name: "python", lang: "python", want: "python"},
		{name: "uppercase normalized", lang: "Python", want: "python"},
		{name: "javascript", lang: "javascript", want: "javascript"},
		{name: "typescript", lang: "typescript", want: "typescript"},
		{name: "unsupported", lang: "ruby", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeLanguage(tt.lang)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeLanguage(%q) error = %v, wantErr %v", tt.lang, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeLanguage(%q) = %q, want %q", tt.lang, got, tt.want)
			}
		})
	}
}

func TestValidateDeploymentType(t *testing.T) {
	tests := []struct {
		name    string
		in      DeploymentType
		want    DeploymentType
		wantErr bool
	}{
		{name: "empty defaults to code", in: "", want: DeploymentTypeCode},
		{name: "code", in: DeploymentTypeCode, want: DeploymentTypeCode},
		{name: "container", in: DeploymentTypeContainer, want: DeploymentTypeContainer},
		{name: "unknown", in: "lambda", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateDeploymentType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateDeploymentType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateDeploymentType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateCode(t *testing.T) {
	if err := ValidateCode("print('hi')"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateCode(""); err == nil {
		t.Error("expected error for empty code")
	}
	if err := ValidateCode(strings.Repeat("x", MaxCodeLength+1)); err == nil {
		t.Error("expected error for oversized code")
	}
}
