package ai

import "context"

// Client sends one system+user prompt pair to a language model and returns
// the raw text of its reply.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
