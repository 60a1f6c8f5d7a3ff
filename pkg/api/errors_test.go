package api

import "testing"

func TestAPIErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "with param",
			err:  NewInvalidRequestError("prompt", "prompt must not be empty"),
			want: "invalid_request: prompt must not be empty (param: prompt)",
		},
		{
			name: "without param",
			err:  NewNotFoundError("deployment not found"),
			want: "not_found: deployment not found",
		},
		{
			name: "server error",
			err:  NewServerError("boom"),
			want: "server_error: boom",
		},
		{
			name: "model error",
			err:  NewModelError("model timed out"),
			want: "model_error: model timed out",
		},
		{
			name: "too many requests",
			err:  NewTooManyRequestsError("throttled"),
			want: "too_many_requests: throttled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
