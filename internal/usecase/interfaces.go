package usecase

import (
	"time"
)

// TokenIssuer mints the access token handed out at register and login.
type TokenIssuer interface {
	Issue(userID, email, role string) (string, time.Time, error)
}

// OrderNotifier pushes order changes to the owner's live connections.
type OrderNotifier interface {
	Notify(userID, eventType string, data interface{})
}

type noopNotifier struct{}

func (noopNotifier) Notify(string, string, interface{}) {}
