package handlers

import (
	"github.com/rogerio-castellano/storefront/internal/push"
	"github.com/rogerio-castellano/storefront/internal/storage"
	"github.com/rogerio-castellano/storefront/internal/storefront"
)

// Breaker reports the state of the backend circuit breaker.
type Breaker interface {
	BreakerState() string
}

var (
	service *storefront.Service
	store   storage.Storage
	hub     *push.Hub
	breaker Breaker
)

func SetService(s *storefront.Service) {
	service = s
}

func SetStorage(s storage.Storage) {
	store = s
}

func SetHub(h *push.Hub) {
	hub = h
}

func SetBreaker(b Breaker) {
	breaker = b
}
