// Package llm defines the boundary to the external language model. The rest
// of the application sees an opaque function: an ordered sequence of role/text
// turns in, a reply (or a failure) out. Nothing above this package knows
// which provider answers.
package llm

import "context"

// Role vocabulary of the external API. This is distinct from the domain's
// sender enum; translation between the two happens in the prompt package.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one element of the context window sent to the model.
type Turn struct {
	Role string
	Text string
}

// Client generates a reply for an ordered context window. Implementations
// must honor ctx for cancellation and timeouts and return an error for any
// transport failure, non-2xx status, or malformed/empty response body.
type Client interface {
	Generate(ctx context.Context, turns []Turn) (string, error)
}
