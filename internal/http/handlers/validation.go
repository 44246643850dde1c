package handlers

import (
	"bytes"
	"strings"
	"time"

	"github.com/rogerio-castellano/storefront/internal/auth"
)

type SessionValidationError struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

func validateSession(req SessionRequest, now time.Time) []SessionValidationError {
	errs := []SessionValidationError{}
	if strings.TrimSpace(req.AccessToken) == "" {
		errs = append(errs, SessionValidationError{Field: "access_token", Description: "access_token is required"})
	} else if info, err := auth.Inspect(req.AccessToken); err == nil && info.Expired(now) {
		errs = append(errs, SessionValidationError{Field: "access_token", Description: "access_token has expired"})
	}
	if user := bytes.TrimSpace(req.User); len(user) > 0 && !bytes.Equal(user, []byte("null")) && user[0] != '{' {
		errs = append(errs, SessionValidationError{Field: "user", Description: "user must be an object"})
	}
	return errs
}
