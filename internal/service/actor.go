package service

import (
	"github.com/google/uuid"
)

// Actor is the authenticated caller an operation runs on behalf of.
type Actor struct {
	ID       uuid.UUID
	Username string
	Role     string
}

func (a Actor) HasRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
