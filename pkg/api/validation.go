package api

import (
	"fmt"
	"strings"
)

// Validation limits enforced before any AWS call is made.
const (
	// MaxPromptLength is the longest prompt accepted by invoke and demo
	// endpoints. Longer prompts are rejected before reaching Bedrock.
	MaxPromptLength = 10000

	// MinRuntimeSessionIDLength is the minimum length the AgentCore
	// runtime data plane accepts for a runtime session ID.
	MinRuntimeSessionIDLength = 33

	// MaxSessionIDLength bounds caller-supplied UI session IDs.
	MaxSessionIDLength = 128

	// MaxCodeLength bounds code submitted to the interpreter.
	MaxCodeLength = 100000
)

// supportedLanguages lists the languages the code interpreter accepts.
var supportedLanguages = map[string]bool{
	"python":     true,
	"javascript": true,
	"typescript": true,
}

// ValidatePrompt checks that a prompt is non-empty after trimming and
// within the length limit.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return NewInvalidRequestError("prompt", "prompt must not be empty")
	}
	if len(prompt) > MaxPromptLength {
		return NewInvalidRequestError("prompt",
			fmt.Sprintf("prompt exceeds maximum length of %d characters", MaxPromptLength))
	}
	return nil
}

// ValidateRuntimeSessionID checks the AgentCore runtime session ID length
// requirement. An empty ID is allowed; the service generates one.
func ValidateRuntimeSessionID(id string) error {
	if id == "" {
		return nil
	}
	if len(id) < MinRuntimeSessionIDLength {
		return NewInvalidRequestError("runtime_session_id",
			fmt.Sprintf("runtime session ID must be at least %d characters", MinRuntimeSessionIDLength))
	}
	return nil
}

// ValidateSessionID checks a caller-supplied UI session identifier.
func ValidateSessionID(id string) error {
	if strings.TrimSpace(id) == "" {
		return NewInvalidRequestError("session_id", "session_id must not be empty")
	}
	if len(id) > MaxSessionIDLength {
		return NewInvalidRequestError("session_id",
			fmt.Sprintf("session_id exceeds maximum length of %d characters", MaxSessionIDLength))
	}
	for _, r := range id {
		if !isSessionIDRune(r) {
			return NewInvalidRequestError("session_id",
				"session_id may only contain letters, digits, '-', and '_'")
		}
	}
	return nil
}

func isSessionIDRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_':
		return true
	}
	return false
}

// ValidateCode checks code submitted to the interpreter.
func ValidateCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return NewInvalidRequestError("code", "code must not be empty")
	}
	if len(code) > MaxCodeLength {
		return NewInvalidRequestError("code",
			fmt.Sprintf("code exceeds maximum length of %d characters", MaxCodeLength))
	}
	return nil
}

// NormalizeLanguage validates the interpreter language, defaulting to
// python when empty.
func NormalizeLanguage(lang string) (string, error) {
	if lang == "" {
		return "python", nil
	}
	normalized := strings.ToLower(lang)
	if !supportedLanguages[normalized] {
		return "", NewInvalidRequestError("language",
			fmt.Sprintf("unsupported language %q", lang))
	}
	return normalized, nil
}

// ValidateDeploymentType validates the packaging mode, defaulting to
// code when empty.
func ValidateDeploymentType(t DeploymentType) (DeploymentType, error) {
	switch t {
	case "":
		return DeploymentTypeCode, nil
	case DeploymentTypeCode, DeploymentTypeContainer:
		return t, nil
	default:
		return "", NewInvalidRequestError("deployment_type",
			fmt.Sprintf("deployment_type must be %q or %q", DeploymentTypeCode, DeploymentTypeContainer))
	}
}
