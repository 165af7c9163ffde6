package auth

import (
	"context"

	"github.com/RubachokBoss/coursework-service/internal/models"
)

type ctxKey string

const ctxKeyPrincipal ctxKey = "principal"

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   models.Role
}

func (p Principal) IsTeacher() bool { return p.Role == models.RoleTeacher }

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(Principal)
	return p, ok
}
