package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/dashh/internal/model"
	"github.com/templui/dashh/internal/repository"
	"github.com/templui/dashh/internal/result"
)

func loggedIn(t *testing.T) (*harness, model.AuthUser) {
	t.Helper()
	h := newHarness(t)
	h.signUp(t, "jane@example.com", "password123")
	user := requireOk(t, h.facade.Login(context.Background(), "jane@example.com", "password123"))
	return h, user
}

func TestFacadeRemotePath(t *testing.T) {
	h, _ := loggedIn(t)
	ctx := context.Background()

	up := requireOk(t, h.facade.UploadFile(ctx, textPayload("a.txt", "abc")))
	files := requireOk(t, h.facade.GetUserFiles(ctx))
	require.Len(t, files, 1)
	assert.Equal(t, up.FileID, files[0].ID)
	assert.False(t, h.facade.UsingLocal())
	assert.Len(t, h.files.files, 1)
}

func TestFacadeDomainFailureDoesNotSwitch(t *testing.T) {
	h, _ := loggedIn(t)
	ctx := context.Background()

	requireFail(t, h.facade.DeleteFile(ctx, "missing"), result.KindNotFound)
	requireFail(t, h.facade.GetFileContent(ctx, "missing"), result.KindNotFound)
	assert.False(t, h.facade.UsingLocal())
}

func TestFacadeNotLoggedIn(t *testing.T) {
	h := newHarness(t)

	f := requireFail(t, h.facade.GetUserFiles(context.Background()), result.KindAuth)
	assert.Equal(t, "User not authenticated", f.Message)
	assert.False(t, h.facade.UsingLocal())
}

func TestFacadeStickyFallback(t *testing.T) {
	h, user := loggedIn(t)
	ctx := context.Background()

	h.files.err = errConnRefused
	up := requireOk(t, h.facade.UploadFile(ctx, textPayload("offline.txt", "hello")))
	assert.True(t, h.facade.UsingLocal())
	assert.Equal(t, user.ID, up.File.OwnerID)

	local, err := h.local.UserFiles(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, local, 1)
	assert.Equal(t, up.FileID, local[0].ID)

	// The remote backend recovers, but the session stays local.
	h.files.err = nil
	files := requireOk(t, h.facade.GetUserFiles(ctx))
	require.Len(t, files, 1)
	assert.Equal(t, "offline.txt", files[0].Name)
	assert.Empty(t, h.files.files)
	assert.True(t, h.facade.UsingLocal())
}

func TestFacadeLoginResetsFallback(t *testing.T) {
	h, _ := loggedIn(t)
	ctx := context.Background()

	h.files.err = errConnRefused
	requireOk(t, h.facade.GetUserFiles(ctx))
	require.True(t, h.facade.UsingLocal())

	h.files.err = nil
	requireOk(t, h.facade.Login(ctx, "jane@example.com", "password123"))
	assert.False(t, h.facade.UsingLocal())

	requireOk(t, h.facade.UploadFile(ctx, textPayload("a.txt", "a")))
	assert.Len(t, h.files.files, 1)
}

func TestFacadeLogoutResetsFallback(t *testing.T) {
	h, _ := loggedIn(t)
	ctx := context.Background()

	h.files.err = errConnRefused
	requireOk(t, h.facade.GetUserFiles(ctx))
	require.True(t, h.facade.UsingLocal())

	requireOk(t, h.facade.Logout(ctx))
	assert.False(t, h.facade.UsingLocal())
	requireFail(t, h.facade.GetUserFiles(ctx), result.KindAuth)
}

func TestFacadeTransientFailureIsNotSticky(t *testing.T) {
	h, user := loggedIn(t)
	ctx := context.Background()

	require.NoError(t, h.local.SaveUserFiles(ctx, user.ID, []model.FileRecord{
		{ID: "cached", OwnerID: user.ID, Name: "cached.txt"},
	}))

	h.files.err = context.DeadlineExceeded
	files := requireOk(t, h.facade.GetUserFiles(ctx))
	require.Len(t, files, 1)
	assert.Equal(t, "cached", files[0].ID)
	assert.False(t, h.facade.UsingLocal())
	assert.True(t, h.facade.ServedLocally())

	h.files.err = nil
	assert.Empty(t, requireOk(t, h.facade.GetUserFiles(ctx)))
}

func TestFacadeLoginFallsBackWhenProfileUnavailable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signUp(t, "jane@example.com", "password123")

	h.users.err = errConnRefused
	user := requireOk(t, h.facade.Login(ctx, "jane@example.com", "password123"))
	assert.Equal(t, "jane", user.Name)
	assert.True(t, h.facade.UsingLocal())

	profile, err := h.local.UserProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", profile.Email)
	assert.True(t, profile.IsFirstLogin)
}

func TestFacadeLoginFailsWhenAuthUnreachable(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "jane@example.com", "password123")

	h.creds.err = errConnRefused
	requireFail(t, h.facade.Login(context.Background(), "jane@example.com", "password123"), result.KindUnavailable)
	assert.False(t, h.facade.UsingLocal())
}

func TestFacadeLocalDelete(t *testing.T) {
	h, _ := loggedIn(t)
	ctx := context.Background()
	h.files.err = errConnRefused

	up := requireOk(t, h.facade.UploadFile(ctx, textPayload("a.txt", "abc")))
	requireOk(t, h.facade.UploadFile(ctx, textPayload("b.txt", "de")))

	f := requireFail(t, h.facade.DeleteFile(ctx, "missing"), result.KindNotFound)
	assert.Equal(t, "File not found", f.Message)
	assert.Len(t, requireOk(t, h.facade.GetUserFiles(ctx)), 2)

	msg := requireOk(t, h.facade.DeleteFile(ctx, up.FileID))
	assert.Equal(t, "File deleted successfully", msg)

	files := requireOk(t, h.facade.GetUserFiles(ctx))
	require.Len(t, files, 1)
	assert.Equal(t, "b.txt", files[0].Name)
}

func TestFacadeLocalContent(t *testing.T) {
	h, _ := loggedIn(t)
	ctx := context.Background()
	h.files.err = errConnRefused

	up := requireOk(t, h.facade.UploadFile(ctx, textPayload("a.txt", "abc")))
	content := requireOk(t, h.facade.GetFileContent(ctx, up.FileID))
	assert.Equal(t, up.File.Content, content.Content)

	file := requireOk(t, h.facade.Download(ctx, up.FileID))
	assert.Equal(t, []byte("abc"), file.Data)
	assert.Equal(t, "text/plain", file.MimeType)
}

func TestFacadeLocalStatsDayBoundary(t *testing.T) {
	h, _ := loggedIn(t)
	ctx := context.Background()
	h.files.err = errConnRefused

	h.clock.t = time.Date(2026, 10, 17, 23, 59, 59, 0, time.UTC)
	requireOk(t, h.facade.UploadFile(ctx, textPayload("late.txt", "1234")))

	st := requireOk(t, h.facade.GetUserStats(ctx))
	assert.Equal(t, model.Stats{TotalFiles: 1, StorageUsedBytes: 4, TodayUploads: 1}, st)

	h.clock.t = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	requireOk(t, h.facade.UploadFile(ctx, textPayload("early.txt", "56")))

	st = requireOk(t, h.facade.GetUserStats(ctx))
	assert.Equal(t, model.Stats{TotalFiles: 2, StorageUsedBytes: 6, TodayUploads: 1}, st)
}

func TestFacadeLocalFilesNewestFirst(t *testing.T) {
	h, _ := loggedIn(t)
	ctx := context.Background()
	h.files.err = errConnRefused

	requireOk(t, h.facade.UploadFile(ctx, textPayload("first.txt", "1")))
	h.clock.t = h.clock.t.Add(time.Minute)
	requireOk(t, h.facade.UploadFile(ctx, textPayload("second.txt", "2")))

	files := requireOk(t, h.facade.GetUserFiles(ctx))
	require.Len(t, files, 2)
	assert.Equal(t, "second.txt", files[0].Name)
	assert.Equal(t, "first.txt", files[1].Name)
}

func TestFacadeLocalProfileIdempotent(t *testing.T) {
	h, user := loggedIn(t)
	ctx := context.Background()
	h.users.err = errConnRefused

	first := requireOk(t, h.facade.GetUserProfile(ctx))
	second := requireOk(t, h.facade.GetUserProfile(ctx))
	assert.Equal(t, first, second)
	assert.Equal(t, "jane", first.Name)
	assert.True(t, first.IsFirstLogin)

	stored, err := h.local.UserProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestFacadeLocalProfileUpdate(t *testing.T) {
	h, _ := loggedIn(t)
	ctx := context.Background()
	h.users.err = errConnRefused

	first, last := "Jane", "Doe"
	view := requireOk(t, h.facade.UpdateUserProfile(ctx, model.ProfilePatch{FirstName: &first, LastName: &last}))
	assert.Equal(t, "Jane", view.FirstName)
	assert.Equal(t, "Doe", view.LastName)
	assert.False(t, view.IsFirstLogin)
	assert.EqualValues(t, 1, view.ProfileUpdateCount)

	view = requireOk(t, h.facade.GetUserProfile(ctx))
	assert.EqualValues(t, 1, view.ProfileUpdateCount)
}

func TestFacadeUpdateProfileValidatesFirst(t *testing.T) {
	h, _ := loggedIn(t)

	requireFail(t, h.facade.UpdateUserProfile(context.Background(), model.ProfilePatch{}), result.KindValidation)
	assert.False(t, h.facade.UsingLocal())
}

func TestFacadeOwnershipIsolationLocal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signUp(t, "a@example.com", "password123")
	h.signUp(t, "b@example.com", "password123")

	requireOk(t, h.facade.Login(ctx, "a@example.com", "password123"))
	h.files.err = errConnRefused
	up := requireOk(t, h.facade.UploadFile(ctx, textPayload("a.txt", "secret")))
	requireOk(t, h.facade.Logout(ctx))

	requireOk(t, h.facade.Login(ctx, "b@example.com", "password123"))
	assert.Empty(t, requireOk(t, h.facade.GetUserFiles(ctx)))
	requireFail(t, h.facade.GetFileContent(ctx, up.FileID), result.KindNotFound)
	requireFail(t, h.facade.DeleteFile(ctx, up.FileID), result.KindNotFound)
}

func TestFacadeSearch(t *testing.T) {
	h, _ := loggedIn(t)
	ctx := context.Background()

	requireOk(t, h.facade.UploadFile(ctx, textPayload("Quarterly Report.txt", "q")))
	requireOk(t, h.facade.UploadFile(ctx, textPayload("notes.md", "n")))

	files := requireOk(t, h.facade.SearchFiles(ctx, "REPORT"))
	require.Len(t, files, 1)
	assert.Equal(t, "Quarterly Report.txt", files[0].Name)
}

func TestFacadeClearLocal(t *testing.T) {
	h, user := loggedIn(t)
	ctx := context.Background()
	h.files.err = errConnRefused
	requireOk(t, h.facade.UploadFile(ctx, textPayload("a.txt", "a")))

	requireOk(t, h.facade.ClearLocal(ctx))

	files, err := h.local.UserFiles(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFacadeReconcileLocal(t *testing.T) {
	h, _ := loggedIn(t)
	ctx := context.Background()

	h.files.err = errConnRefused
	requireOk(t, h.facade.UploadFile(ctx, textPayload("offline.txt", "hello")))
	require.True(t, h.facade.UsingLocal())

	st := requireOk(t, h.facade.ReconcileCounters(ctx))
	assert.EqualValues(t, 1, st.TotalFiles)
	assert.EqualValues(t, 5, st.StorageUsedBytes)
	assert.EqualValues(t, 1, st.TodayUploads)
}

type countingFiles struct {
	repository.FileRepository
	listed int
}

func (r *countingFiles) AllUserFiles(ctx context.Context, ownerID string) ([]model.FileRecord, error) {
	r.listed++
	return r.FileRepository.AllUserFiles(ctx, ownerID)
}

func TestFacadeUnreachableBackendIsSticky(t *testing.T) {
	const timeout = 300 * time.Millisecond
	ctx := context.Background()

	// Nothing listens on port 1, so every server selection fails.
	client, database, err := repository.Connect(ctx, "mongodb://127.0.0.1:1/?directConnection=true", "dashh_test", timeout)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	h := newHarness(t)
	files := &countingFiles{FileRepository: repository.NewFileRepository(database)}
	h.remote = NewRemoteDataService(h.auth, h.users, files, timeout)
	h.remote.now = h.clock.Now
	h.facade = NewPersistenceFacade(h.remote, h.local)
	h.facade.now = h.clock.Now

	h.signUp(t, "jane@example.com", "password123")
	requireOk(t, h.facade.Login(ctx, "jane@example.com", "password123"))

	requireFail(t, h.remote.GetUserFiles(ctx), result.KindUnavailable)
	require.Equal(t, 1, files.listed)

	assert.Empty(t, requireOk(t, h.facade.GetUserFiles(ctx)))
	assert.True(t, h.facade.UsingLocal())
	assert.True(t, h.facade.ServedLocally())
	assert.Equal(t, 2, files.listed)

	start := time.Now()
	assert.Empty(t, requireOk(t, h.facade.GetUserFiles(ctx)))
	assert.Equal(t, 2, files.listed)
	assert.Less(t, time.Since(start), timeout)
}
