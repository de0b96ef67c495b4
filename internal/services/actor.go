package services

import "github.com/google/uuid"

// Actor is the verified caller of a service operation.
type Actor struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Admin  bool
}

func (a Actor) Owns(userID uuid.UUID) bool {
	return a.UserID != uuid.Nil && a.UserID == userID
}

func (a Actor) CanAccess(ownerID uuid.UUID) bool {
	return a.Admin || a.Owns(ownerID)
}
