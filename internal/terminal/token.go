package terminal

import "github.com/google/uuid"

// NewOpID mints an idempotency token for one submission attempt.
// Tokens are unique per call; a user-retried action mints a fresh one,
// so the server-side dedupe only catches exact duplicate requests.
func NewOpID(prefix string) string {
	return prefix + "-" + uuid.New().String()
}
