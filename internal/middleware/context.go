package middleware

import (
	"context"

	"github.com/hongminglow/bank-portal/internal/auth"
)

func contextWithSlot(ctx context.Context, slot *principalSlot) context.Context {
	return context.WithValue(ctx, slotKey{}, slot)
}

func notePrincipal(ctx context.Context, p auth.Principal) {
	if slot, ok := ctx.Value(slotKey{}).(*principalSlot); ok {
		slot.p, slot.ok = p, true
	}
}
