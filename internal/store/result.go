package store

import (
	"errors"

	"github.com/powerzone/gymclient/internal/api"
)

// Result is the outcome of a cart mutation. Controllers never propagate
// errors past their boundary; every operation resolves to a Result.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func ok() Result {
	return Result{Success: true}
}

// failure folds an operation error into the caller-facing shape: server
// rejections keep their message verbatim, everything else is generic.
func failure(err error) Result {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return Result{Success: false, Error: apiErr.Message}
	}
	if errors.Is(err, api.ErrNetwork) {
		return Result{Success: false, Error: "Network error"}
	}
	return Result{Success: false, Error: "Something went wrong"}
}
