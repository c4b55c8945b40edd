package app

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/streamio/streamio/internal/errors"
)

// Greet returns the greeting for name. The name is embedded verbatim; the
// empty string is as valid as any other.
func Greet(name string) string {
	return fmt.Sprintf("Hello, %s! Welcome to Streamio.", name)
}

type greetArgs struct {
	Name string `json:"name"`
}

type greetResult struct {
	Message string `json:"message"`
}

// greetCommand adapts Greet to the command-dispatch mechanism.
func greetCommand(_ context.Context, args json.RawMessage) (interface{}, error) {
	var parsed greetArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &parsed); err != nil {
			return nil, apperrors.NewValidationError("invalid greet arguments", "name")
		}
	}

	return greetResult{Message: Greet(parsed.Name)}, nil
}
