package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tennis-tournament/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	// ErrMatchScheduleConflict is returned when a participant of the new
	// match already has a match with an intersecting [start, end) interval.
	ErrMatchScheduleConflict = errors.New("scheduling conflict: participant(s) already have a match overlapping this time")
)

type MatchRepository interface {
	// Create books the match. The overlap check and the insert run in one
	// serializable transaction, so two concurrent bookings colliding on a
	// participant and time window cannot both pass the check; the loser gets
	// ErrMatchScheduleConflict.
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Match, error)
	ListByReferee(ctx context.Context, refereeID int) ([]models.Match, error)
	ListAll(ctx context.Context) ([]models.Match, error)
	// UpdateScore persists the score under the version guard; the write lands
	// only if the stored version still matches match.Version.
	UpdateScore(ctx context.Context, match *models.Match) error
	ExistsByRefereeInTournament(ctx context.Context, tournamentID, userID int) (bool, error)
	DeleteAllByParticipant(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_id, player1_id, player2_id, referee_id, score, start_time, end_time, version`

func scanMatch(row interface{ Scan(...interface{}) error }, m *models.Match) error {
	return row.Scan(
		&m.ID, &m.TournamentID, &m.Player1ID, &m.Player2ID, &m.RefereeID,
		&m.Score, &m.StartTime, &m.EndTime, &m.Version,
	)
}

func (r *postgresMatchRepository) Create(ctx context.Context, m *models.Match) error {
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}
	err := runInTx(ctx, r.db, opts, func(tx *sql.Tx) error {
		participants := pq.Array([]int64{int64(m.Player1ID), int64(m.Player2ID), int64(m.RefereeID)})

		// Half-open intervals: back-to-back matches (existing.end == new.start)
		// do not conflict.
		var conflicts int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM matches
			WHERE (player1_id = ANY($1) OR player2_id = ANY($1) OR referee_id = ANY($1))
			  AND start_time < $3
			  AND end_time > $2`,
			participants, m.StartTime, m.EndTime,
		).Scan(&conflicts)
		if err != nil {
			return err
		}
		if conflicts > 0 {
			return ErrMatchScheduleConflict
		}

		return tx.QueryRowContext(ctx, `
			INSERT INTO matches (tournament_id, player1_id, player2_id, referee_id, score, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, version`,
			m.TournamentID, m.Player1ID, m.Player2ID, m.RefereeID, m.Score, m.StartTime, m.EndTime,
		).Scan(&m.ID, &m.Version)
	})
	if err != nil {
		// A serialization failure means a concurrent booking got there first;
		// the exclusion constraint in the schema is the second line of
		// defence. Both surface as the same scheduling conflict.
		if isPQError(err, pqSerializationFailure) || isPQError(err, pqExclusionViolation) {
			return ErrMatchScheduleConflict
		}
		return err
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	m := &models.Match{}
	if err := scanMatch(r.db.QueryRowContext(ctx, query, id), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY start_time, id`
	return r.queryMatches(ctx, query, tournamentID)
}

func (r *postgresMatchRepository) ListByReferee(ctx context.Context, refereeID int) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE referee_id = $1 ORDER BY start_time, id`
	return r.queryMatches(ctx, query, refereeID)
}

func (r *postgresMatchRepository) ListAll(ctx context.Context) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches ORDER BY start_time, id`
	return r.queryMatches(ctx, query)
}

func (r *postgresMatchRepository) UpdateScore(ctx context.Context, m *models.Match) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE matches SET score = $1, version = version + 1 WHERE id = $2 AND version = $3`,
		m.Score, m.ID, m.Version,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, getErr := r.GetByID(ctx, m.ID); getErr != nil {
			return getErr
		}
		return ErrVersionConflict
	}
	m.Version++
	return nil
}

func (r *postgresMatchRepository) ExistsByRefereeInTournament(ctx context.Context, tournamentID, userID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM matches WHERE tournament_id = $1 AND referee_id = $2)`,
		tournamentID, userID,
	).Scan(&exists)
	return exists, err
}

func (r *postgresMatchRepository) DeleteAllByParticipant(ctx context.Context, exec SQLExecutor, userID int) error {
	if exec == nil {
		exec = r.db
	}
	_, err := exec.ExecContext(ctx,
		`DELETE FROM matches WHERE player1_id = $1 OR player2_id = $1 OR referee_id = $1`, userID)
	return err
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if err := scanMatch(rows, &m); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
