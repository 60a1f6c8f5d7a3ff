package bedrock

import (
	"errors"

	"github.com/aws/smithy-go"
)

// retryableCodes are the AWS error codes that warrant a retry. Everything
// else fails immediately.
var retryableCodes = map[string]bool{
	"ThrottlingException":           true,
	"ServiceUnavailableException":   true,
	"serviceUnavailableException":   true,
	"ModelNotReadyException":        false,
	"ValidationException":           false,
	"AccessDeniedException":         false,
	"ResourceNotFoundException":     false,
	"ModelErrorException":           false,
	"ModelTimeoutException":         false,
	"ServiceQuotaExceededException": false,
}

// isRetryable reports whether an invocation error is worth retrying.
func isRetryable(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return retryableCodes[apiErr.ErrorCode()]
	}
	return false
}
