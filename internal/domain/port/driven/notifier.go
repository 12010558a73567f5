package driven

import "context"

// Notifier delivers a plaintext one-time code to the owner of an email
// address through an out-of-band channel.
type Notifier interface {
	Send(ctx context.Context, email, code string) error
}
