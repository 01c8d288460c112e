package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/bank-portal/internal/apperrors"
	"github.com/hongminglow/bank-portal/internal/http/respond"
)

const maxBodyBytes = 1 << 20

// decode reads a single JSON object into dst, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", apperrors.ErrValidation)
		}
		return fmt.Errorf("%w: invalid JSON payload", apperrors.ErrValidation)
	}
	return nil
}

// writeError answers with the status mapped from err. Internal failures are
// logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, log *zap.Logger, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		respond.Error(w, status, "internal server error")
		return
	}
	respond.Error(w, status, err.Error())
}
