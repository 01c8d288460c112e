package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hongminglow/bank-portal/internal/apperrors"
	"github.com/hongminglow/bank-portal/internal/auth"
	"github.com/hongminglow/bank-portal/internal/models"
	"github.com/hongminglow/bank-portal/internal/models/dto"
	"github.com/hongminglow/bank-portal/internal/storage"
	"github.com/hongminglow/bank-portal/internal/validate"
)

// credentials is the part of a user, employee or admin record a login checks.
type credentials struct {
	id           string
	phone        string
	passwordHash string
}

// authenticate looks the phone up with find, checks the password and issues a
// token for role. An unknown phone and a wrong password fail the same way.
func authenticate[T any](
	ctx context.Context,
	tokens *auth.TokenManager,
	role models.Role,
	req dto.LoginRequest,
	find func(context.Context, string) (T, error),
	creds func(T) credentials,
) (T, string, error) {
	var zero T
	if err := validate.Required([2]string{"phone", req.Phone}, [2]string{"password", req.Password}); err != nil {
		return zero, "", err
	}
	record, err := find(ctx, strings.TrimSpace(req.Phone))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return zero, "", apperrors.ErrInvalidCredentials
		}
		return zero, "", fmt.Errorf("find %s: %w", role, err)
	}
	c := creds(record)
	if !auth.CheckPassword(c.passwordHash, req.Password) {
		return zero, "", apperrors.ErrInvalidCredentials
	}
	token, err := tokens.Generate(auth.Principal{ID: c.id, Role: role, Phone: c.phone})
	if err != nil {
		return zero, "", fmt.Errorf("generate token: %w", err)
	}
	return record, token, nil
}
