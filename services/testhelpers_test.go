package services

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tennis-tournament/models"
	"github.com/Dosada05/tennis-tournament/repositories"
	"github.com/Dosada05/tennis-tournament/storage"
)

// In-memory fakes of the repository interfaces. All state is guarded by a
// single mutex per fake; the registration fake holds a reference to the
// tournament fake so ApproveAndSeat can seat players the way the SQL
// transaction does.

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int]*models.User
	nextID int

	// updateConflicts makes the next N Update calls lose the version race.
	updateConflicts int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User), nextID: 1}
}

func (r *fakeUserRepo) add(user models.User) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	} else if user.ID >= r.nextID {
		r.nextID = user.ID + 1
	}
	r.users[user.ID] = &user
	copied := user
	return &copied
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if existing.Username == user.Username {
			return repositories.ErrUserUsernameConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) List(ctx context.Context, filter repositories.ListUsersFilter) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, user := range r.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateConflicts > 0 {
		r.updateConflicts--
		return repositories.ErrVersionConflict
	}
	stored, ok := r.users[user.ID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	if stored.Version != user.Version {
		return repositories.ErrVersionConflict
	}
	user.Version++
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[int]*models.Tournament
	seats       map[int]map[int]bool // tournamentID -> set of playerIDs
	open        map[int][]int        // playerID -> tournamentIDs with PENDING/APPROVED request
	approved    map[int][]int        // playerID -> tournamentIDs with APPROVED request
	nextID      int

	// saveConflicts makes the next N Save calls lose the version race.
	saveConflicts int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{
		tournaments: make(map[int]*models.Tournament),
		seats:       make(map[int]map[int]bool),
		open:        make(map[int][]int),
		approved:    make(map[int][]int),
		nextID:      1,
	}
}

func (r *fakeTournamentRepo) add(t models.Tournament) *models.Tournament {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == 0 {
		t.ID = r.nextID
		r.nextID++
	} else if t.ID >= r.nextID {
		r.nextID = t.ID + 1
	}
	r.tournaments[t.ID] = &t
	if r.seats[t.ID] == nil {
		r.seats[t.ID] = make(map[int]bool)
	}
	copied := t
	return &copied
}

func (r *fakeTournamentRepo) seat(tournamentID, playerID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seats[tournamentID] == nil {
		r.seats[tournamentID] = make(map[int]bool)
	}
	r.seats[tournamentID][playerID] = true
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tournaments {
		if existing.Name == t.Name {
			return repositories.ErrTournamentNameConflict
		}
	}
	t.ID = r.nextID
	r.nextID++
	t.CreatedAt = time.Now()
	copied := *t
	r.tournaments[t.ID] = &copied
	r.seats[t.ID] = make(map[int]bool)
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(false), nil
}

func (r *fakeTournamentRepo) ListActive(ctx context.Context) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(true), nil
}

func (r *fakeTournamentRepo) snapshotLocked(activeOnly bool) []models.Tournament {
	var out []models.Tournament
	for _, t := range r.tournaments {
		if activeOnly && t.Cancelled {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeTournamentRepo) Save(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveConflicts > 0 {
		r.saveConflicts--
		return repositories.ErrVersionConflict
	}
	stored, ok := r.tournaments[t.ID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if stored.Version != t.Version {
		return repositories.ErrVersionConflict
	}
	t.Version++
	copied := *t
	r.tournaments[t.ID] = &copied
	return nil
}

func (r *fakeTournamentRepo) ListPlayers(ctx context.Context, tournamentID int) ([]models.User, error) {
	return nil, nil
}

func (r *fakeTournamentRepo) CountPlayers(ctx context.Context, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seats[tournamentID]), nil
}

func (r *fakeTournamentRepo) HasPlayer(ctx context.Context, tournamentID, playerID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seats[tournamentID][playerID], nil
}

func (r *fakeTournamentRepo) ListByPlayer(ctx context.Context, playerID int) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Tournament
	for id, seat := range r.seats {
		if seat[playerID] {
			out = append(out, *r.tournaments[id])
		}
	}
	return out, nil
}

func (r *fakeTournamentRepo) ListApprovedByPlayer(ctx context.Context, playerID int) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Tournament
	for _, id := range r.approved[playerID] {
		if t, ok := r.tournaments[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTournamentRepo) ListWithOpenRequestByPlayer(ctx context.Context, playerID int) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Tournament
	for _, id := range r.open[playerID] {
		if t, ok := r.tournaments[id]; ok && !t.Cancelled {
			out = append(out, *t)
		}
	}
	return out, nil
}

type fakeRegistrationRepo struct {
	mu             sync.Mutex
	requests       map[int]*models.RegistrationRequest
	nextID         int
	tournamentRepo *fakeTournamentRepo
}

func newFakeRegistrationRepo(tr *fakeTournamentRepo) *fakeRegistrationRepo {
	return &fakeRegistrationRepo{
		requests:       make(map[int]*models.RegistrationRequest),
		nextID:         1,
		tournamentRepo: tr,
	}
}

func (r *fakeRegistrationRepo) add(req models.RegistrationRequest) *models.RegistrationRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == 0 {
		req.ID = r.nextID
		r.nextID++
	} else if req.ID >= r.nextID {
		r.nextID = req.ID + 1
	}
	if req.Status == "" {
		req.Status = models.RegistrationPending
	}
	r.requests[req.ID] = &req
	copied := req
	return &copied
}

func (r *fakeRegistrationRepo) Create(ctx context.Context, req *models.RegistrationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Unique pair across all statuses: a denied player stays denied.
	for _, existing := range r.requests {
		if existing.TournamentID == req.TournamentID && existing.PlayerID == req.PlayerID {
			return repositories.ErrRequestExists
		}
	}
	req.ID = r.nextID
	r.nextID++
	req.Status = models.RegistrationPending
	req.CreatedAt = time.Now()
	copied := *req
	r.requests[req.ID] = &copied
	return nil
}

func (r *fakeRegistrationRepo) GetByID(ctx context.Context, id int) (*models.RegistrationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, repositories.ErrRequestNotFound
	}
	copied := *req
	return &copied, nil
}

func (r *fakeRegistrationRepo) ListByStatus(ctx context.Context, status models.RegistrationStatus) ([]models.RegistrationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.RegistrationRequest
	for _, req := range r.requests {
		if req.Status == status {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRegistrationRepo) ListAll(ctx context.Context) ([]models.RegistrationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.RegistrationRequest
	for _, req := range r.requests {
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRegistrationRepo) Exists(ctx context.Context, tournamentID, playerID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.TournamentID == tournamentID && req.PlayerID == playerID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRegistrationRepo) ApproveAndSeat(ctx context.Context, req *models.RegistrationRequest, tournament *models.Tournament) error {
	r.mu.Lock()
	stored, ok := r.requests[req.ID]
	if !ok {
		r.mu.Unlock()
		return repositories.ErrRequestNotFound
	}
	if stored.Status != models.RegistrationPending {
		r.mu.Unlock()
		return repositories.ErrRequestNotPending
	}
	r.mu.Unlock()

	// Version bump first, mirroring the transactional all-or-nothing write.
	if err := r.tournamentRepo.Save(ctx, tournament); err != nil {
		return err
	}

	r.mu.Lock()
	stored.Status = models.RegistrationApproved
	req.Status = models.RegistrationApproved
	r.mu.Unlock()
	r.tournamentRepo.seat(req.TournamentID, req.PlayerID)
	return nil
}

func (r *fakeRegistrationRepo) Deny(ctx context.Context, req *models.RegistrationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[req.ID]
	if !ok {
		return repositories.ErrRequestNotFound
	}
	if stored.Status != models.RegistrationPending {
		return repositories.ErrRequestNotPending
	}
	stored.Status = models.RegistrationDenied
	req.Status = models.RegistrationDenied
	return nil
}

func (r *fakeRegistrationRepo) DeleteAllByPlayer(ctx context.Context, exec repositories.SQLExecutor, playerID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, req := range r.requests {
		if req.PlayerID == playerID {
			delete(r.requests, id)
		}
	}
	return nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[int]*models.Match
	nextID  int

	// updateConflicts makes the next N UpdateScore calls lose the version race.
	updateConflicts int
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match), nextID: 1}
}

func (r *fakeMatchRepo) add(m models.Match) *models.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == 0 {
		m.ID = r.nextID
		r.nextID++
	} else if m.ID >= r.nextID {
		r.nextID = m.ID + 1
	}
	r.matches[m.ID] = &m
	copied := m
	return &copied
}

func (r *fakeMatchRepo) Create(ctx context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Half-open interval overlap across any shared participant.
	for _, existing := range r.matches {
		if !sharesParticipant(existing, match) {
			continue
		}
		if match.StartTime.Before(existing.EndTime) && existing.StartTime.Before(match.EndTime) {
			return repositories.ErrMatchScheduleConflict
		}
	}
	match.ID = r.nextID
	r.nextID++
	match.Version = 0
	copied := *match
	r.matches[match.ID] = &copied
	return nil
}

func sharesParticipant(a, b *models.Match) bool {
	for _, x := range a.ParticipantIDs() {
		for _, y := range b.ParticipantIDs() {
			if x == y {
				return true
			}
		}
	}
	return false
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Match
	for _, m := range r.matches {
		if m.TournamentID == tournamentID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) ListByReferee(ctx context.Context, refereeID int) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Match
	for _, m := range r.matches {
		if m.RefereeID == refereeID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) ListAll(ctx context.Context) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Match
	for _, m := range r.matches {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) UpdateScore(ctx context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateConflicts > 0 {
		r.updateConflicts--
		return repositories.ErrVersionConflict
	}
	stored, ok := r.matches[match.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if stored.Version != match.Version {
		return repositories.ErrVersionConflict
	}
	stored.Score = match.Score
	stored.Version++
	match.Version++
	return nil
}

func (r *fakeMatchRepo) ExistsByRefereeInTournament(ctx context.Context, tournamentID, userID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.TournamentID == tournamentID && m.RefereeID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeMatchRepo) DeleteAllByParticipant(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.matches {
		for _, pid := range m.ParticipantIDs() {
			if pid == userID {
				delete(r.matches, id)
				break
			}
		}
	}
	return nil
}

type notifyCall struct {
	playerID     int
	tournamentID int
	approved     bool
}

// fakeNotifier records deliveries on a buffered channel so tests can wait for
// the background goroutine.
type fakeNotifier struct {
	calls chan notifyCall
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{calls: make(chan notifyCall, 8)}
}

func (n *fakeNotifier) NotifyRegistrationOutcome(ctx context.Context, player *models.User, tournament *models.Tournament, approved bool) error {
	n.calls <- notifyCall{playerID: player.ID, tournamentID: tournament.ID, approved: approved}
	return nil
}

type fakeUploader struct {
	mu       sync.Mutex
	uploaded map[string]string // key -> content
	baseURL  string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploaded: make(map[string]string), baseURL: "https://cdn.example.com"}
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploaded[key] = string(data)
	return &storage.UploadResult{Key: key, Location: u.baseURL + "/" + key}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.uploaded, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return u.baseURL + "/" + key
}
