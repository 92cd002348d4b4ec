package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tennis-tournament/models"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name already exists")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context) ([]models.Tournament, error)
	// ListActive returns every non-cancelled tournament, used by the capacity sweep.
	ListActive(ctx context.Context) ([]models.Tournament, error)
	// Save persists the mutable fields of a tournament under the version
	// guard: the write lands only if the stored version still matches
	// tournament.Version, and increments it. ErrVersionConflict otherwise.
	Save(ctx context.Context, tournament *models.Tournament) error

	ListPlayers(ctx context.Context, tournamentID int) ([]models.User, error)
	CountPlayers(ctx context.Context, tournamentID int) (int, error)
	HasPlayer(ctx context.Context, tournamentID, playerID int) (bool, error)
	// ListByPlayer returns tournaments where the player is seated in the
	// approved set.
	ListByPlayer(ctx context.Context, playerID int) ([]models.Tournament, error)
	// ListApprovedByPlayer returns tournaments for which the player holds an
	// APPROVED registration request. Distinct from ListByPlayer: it is driven
	// by the request table and surfaces only confirmed registrations.
	ListApprovedByPlayer(ctx context.Context, playerID int) ([]models.Tournament, error)
	// ListWithOpenRequestByPlayer returns non-cancelled tournaments for which
	// the player holds a PENDING or APPROVED request; used by the
	// cross-tournament date overlap guard.
	ListWithOpenRequestByPlayer(ctx context.Context, playerID int) ([]models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, name, start_date, end_date, registration_deadline, max_players, min_players, cancelled, version, created_at`

func scanTournament(row interface{ Scan(...interface{}) error }, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.Name, &t.StartDate, &t.EndDate, &t.RegistrationDeadline,
		&t.MaxPlayers, &t.MinPlayers, &t.Cancelled, &t.Version, &t.CreatedAt,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, start_date, end_date, registration_deadline, max_players, min_players)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, cancelled, version, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.StartDate, t.EndDate, t.RegistrationDeadline, t.MaxPlayers, t.MinPlayers,
	).Scan(&t.ID, &t.Cancelled, &t.Version, &t.CreatedAt)

	if err != nil {
		if isPQError(err, pqUniqueViolation) {
			return ErrTournamentNameConflict
		}
		return err
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	if err := scanTournament(r.db.QueryRowContext(ctx, query, id), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments ORDER BY start_date, id`
	return r.queryTournaments(ctx, query)
}

func (r *postgresTournamentRepository) ListActive(ctx context.Context) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE cancelled = FALSE ORDER BY id`
	return r.queryTournaments(ctx, query)
}

// Save updates the mutable fields under the optimistic version guard.
// Cancelled is monotonic at the schema level; the approval flow and the
// capacity sweep both land through this method.
func (r *postgresTournamentRepository) Save(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1,
			start_date = $2,
			end_date = $3,
			registration_deadline = $4,
			max_players = $5,
			min_players = $6,
			cancelled = $7,
			version = version + 1
		WHERE id = $8 AND version = $9`

	result, err := r.db.ExecContext(ctx, query,
		t.Name, t.StartDate, t.EndDate, t.RegistrationDeadline,
		t.MaxPlayers, t.MinPlayers, t.Cancelled,
		t.ID, t.Version,
	)
	if err != nil {
		if isPQError(err, pqUniqueViolation) {
			return ErrTournamentNameConflict
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		// Либо турнир удалён, либо версия устарела.
		if _, getErr := r.GetByID(ctx, t.ID); getErr != nil {
			return getErr
		}
		return ErrVersionConflict
	}
	t.Version++
	return nil
}

func (r *postgresTournamentRepository) ListPlayers(ctx context.Context, tournamentID int) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.role, u.version, u.created_at
		FROM users u
		JOIN tournament_players tp ON tp.user_id = u.id
		WHERE tp.tournament_id = $1
		ORDER BY u.id`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Version, &u.CreatedAt); err != nil {
			return nil, err
		}
		players = append(players, u)
	}
	return players, rows.Err()
}

func (r *postgresTournamentRepository) CountPlayers(ctx context.Context, tournamentID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tournament_players WHERE tournament_id = $1`, tournamentID,
	).Scan(&count)
	return count, err
}

func (r *postgresTournamentRepository) HasPlayer(ctx context.Context, tournamentID, playerID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tournament_players WHERE tournament_id = $1 AND user_id = $2)`,
		tournamentID, playerID,
	).Scan(&exists)
	return exists, err
}

func (r *postgresTournamentRepository) ListByPlayer(ctx context.Context, playerID int) ([]models.Tournament, error) {
	query := `
		SELECT ` + prefixedTournamentColumns("t") + `
		FROM tournaments t
		JOIN tournament_players tp ON tp.tournament_id = t.id
		WHERE tp.user_id = $1
		ORDER BY t.start_date, t.id`
	return r.queryTournaments(ctx, query, playerID)
}

func (r *postgresTournamentRepository) ListApprovedByPlayer(ctx context.Context, playerID int) ([]models.Tournament, error) {
	query := `
		SELECT ` + prefixedTournamentColumns("t") + `
		FROM tournaments t
		JOIN registration_requests rr ON rr.tournament_id = t.id
		WHERE rr.player_id = $1 AND rr.status = $2
		ORDER BY t.start_date, t.id`
	return r.queryTournaments(ctx, query, playerID, models.RegistrationApproved)
}

func (r *postgresTournamentRepository) ListWithOpenRequestByPlayer(ctx context.Context, playerID int) ([]models.Tournament, error) {
	query := `
		SELECT ` + prefixedTournamentColumns("t") + `
		FROM tournaments t
		JOIN registration_requests rr ON rr.tournament_id = t.id
		WHERE rr.player_id = $1
		  AND rr.status IN ($2, $3)
		  AND t.cancelled = FALSE
		ORDER BY t.start_date, t.id`
	return r.queryTournaments(ctx, query, playerID, models.RegistrationPending, models.RegistrationApproved)
}

func (r *postgresTournamentRepository) queryTournaments(ctx context.Context, query string, args ...interface{}) ([]models.Tournament, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := scanTournament(rows, &t); err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func prefixedTournamentColumns(alias string) string {
	return alias + `.id, ` + alias + `.name, ` + alias + `.start_date, ` + alias + `.end_date, ` +
		alias + `.registration_deadline, ` + alias + `.max_players, ` + alias + `.min_players, ` +
		alias + `.cancelled, ` + alias + `.version, ` + alias + `.created_at`
}
