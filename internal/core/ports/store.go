package ports

import "go.trai.ch/ripple/internal/core/domain"

// BuildInfoStore defines the interface for storing and retrieving the state of the last committed plan.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BuildInfoStore interface {
	// Get retrieves the build info stored under key in stateDir.
	// Returns nil, nil if not found.
	Get(stateDir, key string) (*domain.BuildInfo, error)

	// Put stores the build info under info.Key in stateDir.
	Put(stateDir string, info domain.BuildInfo) error
}
