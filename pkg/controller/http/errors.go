package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/secmon-lab/relmap/pkg/usecase"
	"github.com/secmon-lab/relmap/pkg/utils/errutil"
)

// clientErrors maps use case sentinels to a status code. The sentinel text
// is the message sent to the client.
var clientErrors = []struct {
	target error
	status int
}{
	{usecase.ErrContactNotFound, http.StatusNotFound},
	{usecase.ErrRelationshipNotFound, http.StatusNotFound},
	{usecase.ErrUserNotFound, http.StatusNotFound},
	{usecase.ErrChannelNotFound, http.StatusNotFound},
	{usecase.ErrRelationshipExists, http.StatusConflict},
	{usecase.ErrTokenRequired, http.StatusUnauthorized},
	{usecase.ErrTokenExpired, http.StatusUnauthorized},
	{usecase.ErrInvalidToken, http.StatusUnauthorized},
}

// unauthorizedMessages holds the client text of each token error
var unauthorizedMessages = map[error]string{
	usecase.ErrTokenRequired: "Access token required",
	usecase.ErrTokenExpired:  "Token expired",
	usecase.ErrInvalidToken:  "Invalid token",
}

// errorStatus resolves the status code and client message of err.
// Unknown errors become 500 with fallback as the message.
func errorStatus(err error, fallback string) (int, string) {
	var verr *usecase.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Message
	}

	for _, ce := range clientErrors {
		if errors.Is(err, ce.target) {
			if msg, ok := unauthorizedMessages[ce.target]; ok {
				return ce.status, msg
			}
			return ce.status, ce.target.Error()
		}
	}

	if errors.Is(err, usecase.ErrUnauthorized) {
		return http.StatusUnauthorized, "Invalid token"
	}
	return http.StatusInternalServerError, fallback
}

// writeError translates err into a JSON error response
func writeError(ctx context.Context, w http.ResponseWriter, err error, fallback string) {
	status, msg := errorStatus(err, fallback)
	errutil.HandleHTTP(ctx, w, err, status, msg)
}
