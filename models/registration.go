package models

import "time"

// RegistrationStatus представляет статусы заявки, соответствующие ENUM в БД.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "PENDING"
	RegistrationApproved RegistrationStatus = "APPROVED"
	RegistrationDenied   RegistrationStatus = "DENIED"
)

// CanTransitionTo reports whether a request may move from its current status
// to next. PENDING may move to APPROVED or DENIED; both of those are terminal.
func (s RegistrationStatus) CanTransitionTo(next RegistrationStatus) bool {
	if s != RegistrationPending {
		return false
	}
	return next == RegistrationApproved || next == RegistrationDenied
}

// RegistrationRequest is a player's bid to join a tournament. At most one
// request ever exists per (tournament, player) pair, regardless of outcome.
type RegistrationRequest struct {
	ID           int                `json:"id" db:"id"`
	TournamentID int                `json:"tournament_id" db:"tournament_id"`
	PlayerID     int                `json:"player_id" db:"player_id"`
	Status       RegistrationStatus `json:"status" db:"status"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
}
