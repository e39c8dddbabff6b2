package slack

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrUnknownField means the configured custom profile field does not
	// exist in the workspace. It is a configuration error; retrying the same
	// request will not help, but the next refresh cycle resolves again.
	ErrUnknownField = goerr.New("slack custom profile field not found")
)

// Context keys for error values
const (
	FieldLabelKey = "field_label"
	SlackIDKey    = "slack_id"
	MethodKey     = "method"
)
