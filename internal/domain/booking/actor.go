package booking

import (
	"github.com/google/uuid"
	"github.com/staybook/service-booking/internal/domain/user"
)

// Actor is the user performing a state change.
type Actor struct {
	ID   uuid.UUID
	Role user.Role
}

// ActorFromUser builds an Actor from a loaded user.
func ActorFromUser(u *user.User) Actor {
	return Actor{ID: u.ID(), Role: u.Role()}
}
