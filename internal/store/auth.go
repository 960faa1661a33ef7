package store

import (
	"fmt"

	"github.com/Veraticus/my-budget-client/internal/credentials"
	"github.com/Veraticus/my-budget-client/internal/model"
)

// AuthStore is the cross-cutting state a front-end subscribes to.
// It is created by the caller and handed to whatever needs it.
type AuthStore struct {
	Authenticated *Value[bool]
	Profile       *Value[model.UserProfile]
	Categories    *CategoryCache
}

// NewAuthStore returns a signed-out store with an empty category cache.
func NewAuthStore() *AuthStore {
	return &AuthStore{
		Authenticated: NewValue(false),
		Profile:       NewValue(model.UserProfile{}),
		Categories:    NewCategoryCache(),
	}
}

// Initialize seeds the flag and a username-only profile from persisted
// credentials. Token freshness is not checked; an expired token is only
// discovered when a request comes back 401.
func (s *AuthStore) Initialize(creds credentials.Store) error {
	stored, err := creds.Load()
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	s.Authenticated.Set(stored.HasToken())
	if stored.Username != "" {
		s.Profile.Set(model.UserProfile{Username: stored.Username})
	}
	return nil
}

// SignIn marks the user as authenticated with a username-only profile.
func (s *AuthStore) SignIn(username string) {
	s.Profile.Set(model.UserProfile{Username: username})
	s.Authenticated.Set(true)
}

// Expire marks the session as ended and clears the profile.
func (s *AuthStore) Expire() {
	s.Authenticated.Set(false)
	s.Profile.Set(model.UserProfile{})
}

// IsAuthenticated returns the current flag.
func (s *AuthStore) IsAuthenticated() bool {
	return s.Authenticated.Get()
}
