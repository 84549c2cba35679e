package auth

import "context"

// --- Context Helper Functions ---

// WithUserEmail stores the authenticated caller's email on ctx.
func WithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, UserEmailKey, email)
}

// GetUserEmailFromContext retrieves the caller's email from the request context.
// Returns the email and true if found, otherwise "" and false.
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok && email != ""
}
