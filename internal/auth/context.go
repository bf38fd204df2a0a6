package auth

import (
	"context"

	"github.com/KlimSani4/hydrocalc/internal/models"
)

type contextKey string

const accountKey = contextKey("account")

// WithAccount attaches the authenticated principal to ctx.
func WithAccount(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, accountKey, account)
}

// AccountFromContext returns the principal, or false for anonymous requests.
func AccountFromContext(ctx context.Context) (*models.Account, bool) {
	account, ok := ctx.Value(accountKey).(*models.Account)
	return account, ok && account != nil
}

func AccountIDFromContext(ctx context.Context) (int64, bool) {
	account, ok := AccountFromContext(ctx)
	if !ok {
		return 0, false
	}
	return account.ID, true
}
