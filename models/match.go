package models

import "time"

// Match represents a scheduled contest between two players under a referee.
// The [StartTime, EndTime) interval of two matches sharing any participant
// (player1, player2 or referee) must never intersect.
type Match struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Player1ID    int       `json:"player1_id" db:"player1_id"`
	Player2ID    int       `json:"player2_id" db:"player2_id"`
	RefereeID    int       `json:"referee_id" db:"referee_id"`
	Score        string    `json:"score" db:"score"`
	StartTime    time.Time `json:"start_time" db:"start_time"`
	EndTime      time.Time `json:"end_time" db:"end_time"`
	Version      int64     `json:"version" db:"version"`
}

// ParticipantIDs returns the three user ids booked by the match.
func (m *Match) ParticipantIDs() []int {
	return []int{m.Player1ID, m.Player2ID, m.RefereeID}
}

// InWindow reports whether now lies within [StartTime, EndTime], the only
// interval during which the assigned referee may record a score.
func (m *Match) InWindow(now time.Time) bool {
	return !now.Before(m.StartTime) && !now.After(m.EndTime)
}
