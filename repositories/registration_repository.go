package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tennis-tournament/models"
)

var (
	ErrRequestNotFound = errors.New("registration request not found")
	// ErrRequestExists is returned when a request for the same
	// (tournament, player) pair already exists in any status. The pair is
	// unique for all time, so a denied player cannot re-request.
	ErrRequestExists = errors.New("request already exists for this player in this tournament")
	// ErrRequestNotPending is returned when approve/deny targets a request
	// that has already reached a terminal status.
	ErrRequestNotPending = errors.New("request is no longer pending")
)

type RegistrationRepository interface {
	Create(ctx context.Context, req *models.RegistrationRequest) error
	GetByID(ctx context.Context, id int) (*models.RegistrationRequest, error)
	ListByStatus(ctx context.Context, status models.RegistrationStatus) ([]models.RegistrationRequest, error)
	ListAll(ctx context.Context) ([]models.RegistrationRequest, error)
	Exists(ctx context.Context, tournamentID, playerID int) (bool, error)
	// ApproveAndSeat flips the request to APPROVED and inserts the player
	// into the tournament's approved set in a single transaction, bumping the
	// tournament version, so there is never a gap between "approved" and
	// "actually seated". tournament.Version must be the version the caller
	// read; ErrVersionConflict if it is stale, ErrRequestNotPending if the
	// request already reached a terminal status.
	ApproveAndSeat(ctx context.Context, req *models.RegistrationRequest, tournament *models.Tournament) error
	// Deny flips a PENDING request to DENIED. Terminal; ErrRequestNotPending
	// if the request has already been resolved.
	Deny(ctx context.Context, req *models.RegistrationRequest) error
	DeleteAllByPlayer(ctx context.Context, exec SQLExecutor, playerID int) error
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

const registrationColumns = `id, tournament_id, player_id, status, created_at`

func scanRegistration(row interface{ Scan(...interface{}) error }, req *models.RegistrationRequest) error {
	return row.Scan(&req.ID, &req.TournamentID, &req.PlayerID, &req.Status, &req.CreatedAt)
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, req *models.RegistrationRequest) error {
	query := `
		INSERT INTO registration_requests (tournament_id, player_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, req.TournamentID, req.PlayerID, models.RegistrationPending).
		Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		// uq_request_per_player на паре (tournament_id, player_id)
		if isPQError(err, pqUniqueViolation) {
			return ErrRequestExists
		}
		return err
	}
	req.Status = models.RegistrationPending
	return nil
}

func (r *postgresRegistrationRepository) GetByID(ctx context.Context, id int) (*models.RegistrationRequest, error) {
	query := `SELECT ` + registrationColumns + ` FROM registration_requests WHERE id = $1`

	req := &models.RegistrationRequest{}
	if err := scanRegistration(r.db.QueryRowContext(ctx, query, id), req); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *postgresRegistrationRepository) ListByStatus(ctx context.Context, status models.RegistrationStatus) ([]models.RegistrationRequest, error) {
	query := `SELECT ` + registrationColumns + ` FROM registration_requests WHERE status = $1 ORDER BY created_at, id`
	return r.queryRequests(ctx, query, status)
}

func (r *postgresRegistrationRepository) ListAll(ctx context.Context) ([]models.RegistrationRequest, error) {
	query := `SELECT ` + registrationColumns + ` FROM registration_requests ORDER BY created_at, id`
	return r.queryRequests(ctx, query)
}

func (r *postgresRegistrationRepository) Exists(ctx context.Context, tournamentID, playerID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registration_requests WHERE tournament_id = $1 AND player_id = $2)`,
		tournamentID, playerID,
	).Scan(&exists)
	return exists, err
}

func (r *postgresRegistrationRepository) ApproveAndSeat(ctx context.Context, req *models.RegistrationRequest, tournament *models.Tournament) error {
	err := runInTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		if err := r.transition(ctx, tx, req.ID, models.RegistrationApproved); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tournament_players (tournament_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			req.TournamentID, req.PlayerID,
		); err != nil {
			return err
		}

		// Bump the tournament version so a concurrent capacity sweep reading
		// the old version loses cleanly.
		result, err := tx.ExecContext(ctx,
			`UPDATE tournaments SET version = version + 1 WHERE id = $1 AND version = $2`,
			tournament.ID, tournament.Version,
		)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrVersionConflict
		}
		return nil
	})
	if err != nil {
		return err
	}

	req.Status = models.RegistrationApproved
	tournament.Version++
	return nil
}

func (r *postgresRegistrationRepository) Deny(ctx context.Context, req *models.RegistrationRequest) error {
	if err := r.transition(ctx, r.db, req.ID, models.RegistrationDenied); err != nil {
		return err
	}
	req.Status = models.RegistrationDenied
	return nil
}

// transition moves a request out of PENDING. The WHERE clause is the guard:
// zero affected rows means the request is gone or already terminal.
func (r *postgresRegistrationRepository) transition(ctx context.Context, exec SQLExecutor, id int, next models.RegistrationStatus) error {
	result, err := exec.ExecContext(ctx,
		`UPDATE registration_requests SET status = $1 WHERE id = $2 AND status = $3`,
		next, id, models.RegistrationPending,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var status models.RegistrationStatus
		err := exec.QueryRowContext(ctx, `SELECT status FROM registration_requests WHERE id = $1`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRequestNotFound
		}
		if err != nil {
			return err
		}
		return ErrRequestNotPending
	}
	return nil
}

func (r *postgresRegistrationRepository) DeleteAllByPlayer(ctx context.Context, exec SQLExecutor, playerID int) error {
	if exec == nil {
		exec = r.db
	}
	_, err := exec.ExecContext(ctx, `DELETE FROM registration_requests WHERE player_id = $1`, playerID)
	return err
}

func (r *postgresRegistrationRepository) queryRequests(ctx context.Context, query string, args ...interface{}) ([]models.RegistrationRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]models.RegistrationRequest, 0)
	for rows.Next() {
		var req models.RegistrationRequest
		if err := scanRegistration(rows, &req); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
