package email

import (
	"context"
)

// Service delivers transactional mail. Delivery is fire-and-forget at the
// call sites; a failure is reported but never blocks account creation.
type Service interface {
	SendConfirmation(ctx context.Context, to, name, confirmURL string) error
	SendPasswordReset(ctx context.Context, to, name, resetURL string) error
}
