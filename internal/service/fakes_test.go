package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	"github.com/templui/dashh/internal/datauri"
	"github.com/templui/dashh/internal/db"
	"github.com/templui/dashh/internal/localstore"
	"github.com/templui/dashh/internal/model"
	"github.com/templui/dashh/internal/repository"
)

// errConnRefused is what the driver returns when no server answers.
var errConnRefused error = topology.ServerSelectionError{
	Wrapped: fmt.Errorf("%w: dial tcp 127.0.0.1:27017: connect: connection refused", topology.ErrServerSelectionTimeout),
}

type fakeCredentials struct {
	mu    sync.Mutex
	byKey map[string]model.Credential
	err   error
}

func newFakeCredentials() *fakeCredentials {
	return &fakeCredentials{byKey: map[string]model.Credential{}}
}

func (r *fakeCredentials) Create(ctx context.Context, c *model.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.byKey[c.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	r.byKey[c.Email] = *c
	return nil
}

func (r *fakeCredentials) ByEmail(ctx context.Context, email string) (*model.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.byKey[email]
	if !ok {
		return nil, repository.ErrCredentialNotFound
	}
	return &c, nil
}

type fakeUsers struct {
	mu       sync.Mutex
	profiles map[string]model.UserProfile
	err      error
	// createErr fails Create only.
	createErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{profiles: map[string]model.UserProfile{}}
}

func (r *fakeUsers) ByID(ctx context.Context, id string) (*model.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.profiles[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &p, nil
}

func (r *fakeUsers) Create(ctx context.Context, p *model.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.profiles[p.ID]; ok {
		return repository.ErrDuplicateProfile
	}
	r.profiles[p.ID] = *p
	return nil
}

func (r *fakeUsers) IncrementCounters(ctx context.Context, id string, files, bytes int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	p, ok := r.profiles[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	p.TotalFiles += files
	p.StorageUsedBytes += bytes
	r.profiles[id] = p
	return nil
}

func (r *fakeUsers) SetCounters(ctx context.Context, id string, files, bytes int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	p, ok := r.profiles[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	p.TotalFiles = files
	p.StorageUsedBytes = bytes
	r.profiles[id] = p
	return nil
}

func (r *fakeUsers) Update(ctx context.Context, id string, patch model.ProfilePatch, now time.Time) (*model.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.profiles[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	p.Apply(patch, now)
	r.profiles[id] = p
	return &p, nil
}

type fakeFiles struct {
	mu    sync.Mutex
	files []model.FileRecord
	err   error
	// failNames makes Create fail for these file names.
	failNames map[string]error
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{failNames: map[string]error{}}
}

func (r *fakeFiles) Create(ctx context.Context, f *model.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if err := r.failNames[f.Name]; err != nil {
		return err
	}
	r.files = append(r.files, *f)
	return nil
}

func (r *fakeFiles) ByID(ctx context.Context, id, ownerID string) (*model.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, f := range r.files {
		if f.ID == id && f.OwnerID == ownerID {
			return &f, nil
		}
	}
	return nil, repository.ErrFileNotFound
}

func (r *fakeFiles) AllUserFiles(ctx context.Context, ownerID string) ([]model.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []model.FileRecord
	for _, f := range r.files {
		if f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	SortNewestFirst(out)
	return out, nil
}

func (r *fakeFiles) Delete(ctx context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	i := slices.IndexFunc(r.files, func(f model.FileRecord) bool {
		return f.ID == id && f.OwnerID == ownerID
	})
	if i < 0 {
		return repository.ErrFileNotFound
	}
	r.files = slices.Delete(r.files, i, i+1)
	return nil
}

// clock is a settable fixed time source.
type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time { return c.t }

type harness struct {
	clock  *clock
	creds  *fakeCredentials
	users  *fakeUsers
	files  *fakeFiles
	auth   *AuthService
	remote *RemoteDataService
	local  *localstore.Store
	facade *PersistenceFacade
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	database, err := db.Init("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	t.Cleanup(func() { _ = database.Close() })

	h := &harness{
		clock: &clock{t: time.Date(2026, 10, 17, 15, 30, 0, 0, time.UTC)},
		creds: newFakeCredentials(),
		users: newFakeUsers(),
		files: newFakeFiles(),
	}

	h.auth = NewAuthService(h.creds, "test-secret", time.Hour)
	h.auth.now = h.clock.Now

	h.remote = NewRemoteDataService(h.auth, h.users, h.files, time.Second)
	h.remote.now = h.clock.Now

	h.local = localstore.New(database, "", localstore.WithClock(h.clock.Now))

	h.facade = NewPersistenceFacade(h.remote, h.local)
	h.facade.now = h.clock.Now

	return h
}

// signUp registers credentials directly so tests control the profile step.
func (h *harness) signUp(t *testing.T, email, password string) {
	t.Helper()
	require.NoError(t, h.auth.Register(context.Background(), email, password))
}

func textPayload(name, body string) model.FilePayload {
	return model.FilePayload{
		Name:      name,
		SizeBytes: int64(len(body)),
		MimeType:  "text/plain",
		Content:   datauri.Encode("text/plain", []byte(body)),
	}
}
