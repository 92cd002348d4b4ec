package models

import "time"

// Tournament представляет турнир.
//
// Invariants, enforced by the service layer on create and by the DB schema:
// registration_deadline < start_date <= end_date, max_players >= min_players,
// and the approved player set never exceeds max_players. Cancellation is
// monotonic: once cancelled, a tournament is never uncancelled.
type Tournament struct {
	ID                   int       `json:"id" db:"id"`
	Name                 string    `json:"name" db:"name"`
	StartDate            time.Time `json:"start_date" db:"start_date"`
	EndDate              time.Time `json:"end_date" db:"end_date"`
	RegistrationDeadline time.Time `json:"registration_deadline" db:"registration_deadline"`
	MaxPlayers           int       `json:"max_players" db:"max_players"`
	MinPlayers           int       `json:"min_players" db:"min_players"`
	Cancelled            bool      `json:"cancelled" db:"cancelled"`
	Version              int64     `json:"version" db:"version"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Players []User  `json:"players,omitempty" db:"-"`
	Matches []Match `json:"matches,omitempty" db:"-"`
}

// Overlaps reports whether the date ranges of two tournaments intersect.
// Ranges are inclusive on both ends, matching the registration guard:
// NOT (existing.end < new.start OR existing.start > new.end).
func (t *Tournament) Overlaps(other *Tournament) bool {
	return !(t.EndDate.Before(other.StartDate) || t.StartDate.After(other.EndDate))
}
