package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sort"
	"sync"

	"github.com/Dosada05/esports-admin/models"
	"github.com/Dosada05/esports-admin/repositories"
	"github.com/Dosada05/esports-admin/storage"
)

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[int]*models.Tournament
	failWith    error
}

func newFakeTournamentRepo(ts ...models.Tournament) *fakeTournamentRepo {
	repo := &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
	for i := range ts {
		t := ts[i]
		repo.tournaments[t.ID] = &t
	}
	return repo
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTournamentRepo) ListByIDs(_ context.Context, ids []int) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	out := make([]models.Tournament, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.tournaments[id]; ok {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) UpdateBracketConfig(_ context.Context, id int, bracketType models.BracketType, teamCount int, cfg models.BracketConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.BracketType = bracketType
	t.TeamCount = teamCount
	t.Config = cfg
	return nil
}

func (r *fakeTournamentRepo) UpdateBracketState(_ context.Context, id int, state json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.State = append(json.RawMessage(nil), state...)
	return nil
}

type fakeUserRepo struct {
	mu          sync.Mutex
	nextID      int
	users       map[int]*models.User
	permissions map[int][]models.PermissionRecord
	// failPermissions makes every permission write fail, rolling back the whole call.
	failPermissions error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		nextID:      1,
		users:       make(map[int]*models.User),
		permissions: make(map[int][]models.PermissionRecord),
	}
}

func (r *fakeUserRepo) CreateWithPermissions(_ context.Context, user *models.User, records []models.PermissionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	if len(records) > 0 && r.failPermissions != nil {
		return r.failPermissions
	}
	user.ID = r.nextID
	r.nextID++
	cp := *user
	r.users[user.ID] = &cp
	if len(records) > 0 {
		r.permissions[user.ID] = append([]models.PermissionRecord{}, records...)
	}
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) ListPermissions(_ context.Context, userID int) ([]models.PermissionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.PermissionRecord{}, r.permissions[userID]...), nil
}

func (r *fakeUserRepo) ReplacePermissions(_ context.Context, userID int, records []models.PermissionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return repositories.ErrUserNotFound
	}
	if r.failPermissions != nil {
		return r.failPermissions
	}
	r.permissions[userID] = append([]models.PermissionRecord{}, records...)
	return nil
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (u *fakeUploader) Upload(_ context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = buf.Bytes()
	u.types[key] = contentType
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type recordedBroadcast struct {
	Room    string
	Message interface{}
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []recordedBroadcast
}

func (b *fakeBroadcaster) BroadcastToRoom(roomID string, message interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, recordedBroadcast{Room: roomID, Message: message})
}
