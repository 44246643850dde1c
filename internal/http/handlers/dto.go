package handlers

import (
	"encoding/json"

	"github.com/rogerio-castellano/storefront/internal/push"
	"github.com/rogerio-castellano/storefront/internal/storefront"
)

// SessionRequest is posted by the login page once the visitor has signed in.
type SessionRequest struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         json.RawMessage `json:"user,omitempty" swaggertype:"object"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type StatsResponse struct {
	Views   storefront.Stats `json:"views"`
	Push    push.Stats       `json:"push"`
	Breaker string           `json:"breaker"`
}
