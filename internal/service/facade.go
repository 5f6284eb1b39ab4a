package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/templui/dashh/internal/localstore"
	"github.com/templui/dashh/internal/model"
	"github.com/templui/dashh/internal/result"
	"github.com/templui/dashh/internal/validation"
)

// Remote is the hosted backend as seen by the facade.
type Remote interface {
	Session() (*model.Session, error)
	Login(ctx context.Context, email, password string) result.Result[model.AuthUser]
	Register(ctx context.Context, email, password, name string) result.Result[model.AuthUser]
	Logout(ctx context.Context) result.Result[struct{}]
	UploadFile(ctx context.Context, payload model.FilePayload) result.Result[model.UploadedFile]
	GetUserFiles(ctx context.Context) result.Result[[]model.FileRecord]
	GetFileContent(ctx context.Context, fileID string) result.Result[model.FileContent]
	DeleteFile(ctx context.Context, fileID string) result.Result[string]
	GetUserStats(ctx context.Context) result.Result[model.Stats]
	GetUserProfile(ctx context.Context) result.Result[model.ProfileView]
	UpdateUserProfile(ctx context.Context, patch model.ProfilePatch) result.Result[model.ProfileView]
	ReconcileCounters(ctx context.Context) result.Result[model.Stats]
}

// LocalStore is the device-local persistence used after the remote backend
// fails.
type LocalStore interface {
	UserFiles(ctx context.Context, ownerID string) ([]model.FileRecord, error)
	SaveUserFiles(ctx context.Context, ownerID string, files []model.FileRecord) error
	UserProfile(ctx context.Context, ownerID string) (*model.UserProfile, error)
	SaveUserProfile(ctx context.Context, ownerID string, profile *model.UserProfile) error
	UserStats(ctx context.Context, ownerID string) (model.Stats, error)
	Clear(ctx context.Context, ownerID string) error
}

// PersistenceFacade routes every operation to the remote backend until the
// first infrastructure failure, then serves the rest of the session from the
// local store. Domain failures are returned as they are. A timed out call is
// served locally without switching. The switch is reset by Initialize and by
// Login and never happens on its own.
type PersistenceFacade struct {
	remote   Remote
	local    LocalStore
	now      func() time.Time
	useLocal bool
	// servedLocal is set once any call is answered by the local store.
	servedLocal bool
}

func NewPersistenceFacade(remote Remote, local LocalStore) *PersistenceFacade {
	return &PersistenceFacade{
		remote: remote,
		local:  local,
		now:    time.Now,
	}
}

// Initialize returns routing to the remote backend.
func (f *PersistenceFacade) Initialize() {
	f.useLocal = false
	f.servedLocal = false
}

// UsingLocal reports whether the facade has switched to the local store.
func (f *PersistenceFacade) UsingLocal() bool {
	return f.useLocal
}

// ServedLocally reports whether any call since Initialize was answered from
// the local store, including single timed out calls.
func (f *PersistenceFacade) ServedLocally() bool {
	return f.servedLocal
}

// route runs remoteFn unless the facade already switched, and falls back to
// localFn on infrastructure failures.
func route[T any](
	f *PersistenceFacade,
	op string,
	remoteFn func() result.Result[T],
	localFn func(session *model.Session) result.Result[T],
) result.Result[T] {
	session, err := f.remote.Session()
	if err != nil {
		return fail[T](op, err)
	}

	if f.useLocal {
		f.servedLocal = true
		return localFn(session)
	}

	r := remoteFn()
	failure, failed := r.Failure()
	if !failed {
		return r
	}

	switch failure.Kind {
	case result.KindUnavailable:
		slog.Warn("remote backend unavailable, switching to local storage", "op", op, "error", failure.Message)
		f.useLocal = true
		f.servedLocal = true
		return localFn(session)
	case result.KindTransient:
		slog.Warn("remote call timed out, serving from local storage", "op", op)
		f.servedLocal = true
		return localFn(session)
	default:
		return r
	}
}

func (f *PersistenceFacade) Login(ctx context.Context, email, password string) result.Result[model.AuthUser] {
	f.Initialize()
	return f.authenticate(ctx, "login", f.remote.Login(ctx, email, password), "")
}

func (f *PersistenceFacade) Register(ctx context.Context, email, password, name string) result.Result[model.AuthUser] {
	f.Initialize()
	return f.authenticate(ctx, "register", f.remote.Register(ctx, email, password, name), name)
}

// authenticate completes a login whose session was established but whose
// profile could not be provisioned remotely.
func (f *PersistenceFacade) authenticate(ctx context.Context, op string, r result.Result[model.AuthUser], name string) result.Result[model.AuthUser] {
	failure, failed := r.Failure()
	if !failed || failure.Kind.Domain() {
		return r
	}

	session, err := f.remote.Session()
	if err != nil {
		return r
	}

	if failure.Kind == result.KindUnavailable {
		slog.Warn("remote backend unavailable, switching to local storage", "op", op, "error", failure.Message)
		f.useLocal = true
	}
	f.servedLocal = true

	profile, err := f.localProfile(ctx, session)
	if err != nil {
		return result.Fail[model.AuthUser](result.KindStorage, err.Error())
	}
	if name != "" && profile.ProfileUpdateCount == 0 && profile.Name != name {
		profile.Name = name
		f.saveLocalProfile(ctx, session.ID, profile)
	}

	return result.Ok(model.AuthUser{ID: session.ID, Email: session.Email, Name: profile.Name})
}

// Logout ends the session and returns routing to the remote backend.
func (f *PersistenceFacade) Logout(ctx context.Context) result.Result[struct{}] {
	r := f.remote.Logout(ctx)
	f.Initialize()
	return r
}

func (f *PersistenceFacade) UploadFile(ctx context.Context, payload model.FilePayload) result.Result[model.UploadedFile] {
	return route(f, "upload",
		func() result.Result[model.UploadedFile] { return f.remote.UploadFile(ctx, payload) },
		func(session *model.Session) result.Result[model.UploadedFile] {
			files, err := f.local.UserFiles(ctx, session.ID)
			if err != nil {
				return storageFailure[model.UploadedFile]("Could not read local files")
			}

			record := NewFileRecord(payload, session.ID, f.now())
			files = append(files, record)

			err = f.local.SaveUserFiles(ctx, session.ID, files)
			if err != nil {
				return storageFailure[model.UploadedFile]("Could not save file locally")
			}

			return result.Ok(model.UploadedFile{FileID: record.ID, File: record})
		},
	)
}

// GetUserFiles returns the user's files, newest first.
func (f *PersistenceFacade) GetUserFiles(ctx context.Context) result.Result[[]model.FileRecord] {
	return route(f, "list files",
		func() result.Result[[]model.FileRecord] { return f.remote.GetUserFiles(ctx) },
		func(session *model.Session) result.Result[[]model.FileRecord] {
			files, err := f.local.UserFiles(ctx, session.ID)
			if err != nil {
				return storageFailure[[]model.FileRecord]("Could not read local files")
			}
			SortNewestFirst(files)
			return result.Ok(files)
		},
	)
}

func (f *PersistenceFacade) GetFileContent(ctx context.Context, fileID string) result.Result[model.FileContent] {
	return route(f, "get content",
		func() result.Result[model.FileContent] { return f.remote.GetFileContent(ctx, fileID) },
		func(session *model.Session) result.Result[model.FileContent] {
			files, err := f.local.UserFiles(ctx, session.ID)
			if err != nil {
				return storageFailure[model.FileContent]("Could not read local files")
			}

			i := indexOf(files, fileID)
			if i < 0 {
				return fail[model.FileContent]("get content", ErrFileNotFound)
			}
			if !files[i].HasContent() {
				return fail[model.FileContent]("get content", ErrNoContent)
			}
			return result.Ok(model.FileContent{Content: files[i].Content, File: files[i]})
		},
	)
}

func (f *PersistenceFacade) DeleteFile(ctx context.Context, fileID string) result.Result[string] {
	return route(f, "delete",
		func() result.Result[string] { return f.remote.DeleteFile(ctx, fileID) },
		func(session *model.Session) result.Result[string] {
			files, err := f.local.UserFiles(ctx, session.ID)
			if err != nil {
				return storageFailure[string]("Could not read local files")
			}

			i := indexOf(files, fileID)
			if i < 0 {
				return fail[string]("delete", ErrFileNotFound)
			}
			files = slices.Delete(files, i, i+1)

			err = f.local.SaveUserFiles(ctx, session.ID, files)
			if err != nil {
				return storageFailure[string]("Could not delete file locally")
			}
			return result.Ok("File deleted successfully")
		},
	)
}

func (f *PersistenceFacade) GetUserStats(ctx context.Context) result.Result[model.Stats] {
	return route(f, "stats",
		func() result.Result[model.Stats] { return f.remote.GetUserStats(ctx) },
		f.localStats(ctx),
	)
}

func (f *PersistenceFacade) GetUserProfile(ctx context.Context) result.Result[model.ProfileView] {
	return route(f, "get profile",
		func() result.Result[model.ProfileView] { return f.remote.GetUserProfile(ctx) },
		func(session *model.Session) result.Result[model.ProfileView] {
			profile, err := f.localProfile(ctx, session)
			if err != nil {
				return storageFailure[model.ProfileView](err.Error())
			}
			return result.Ok(profile.View())
		},
	)
}

func (f *PersistenceFacade) UpdateUserProfile(ctx context.Context, patch model.ProfilePatch) result.Result[model.ProfileView] {
	err := validation.ValidateProfilePatch(patch)
	if err != nil {
		return fail[model.ProfileView]("update profile", invalid(err))
	}

	return route(f, "update profile",
		func() result.Result[model.ProfileView] { return f.remote.UpdateUserProfile(ctx, patch) },
		func(session *model.Session) result.Result[model.ProfileView] {
			profile, err := f.localProfile(ctx, session)
			if err != nil {
				return storageFailure[model.ProfileView](err.Error())
			}

			profile.Apply(patch, f.now())

			err = f.local.SaveUserProfile(ctx, session.ID, profile)
			if err != nil {
				return storageFailure[model.ProfileView]("Could not save profile locally")
			}
			return result.Ok(profile.View())
		},
	)
}

// ReconcileCounters rewrites the remote profile counters. Locally the
// counters are always derived, so the local path only reports them.
func (f *PersistenceFacade) ReconcileCounters(ctx context.Context) result.Result[model.Stats] {
	return route(f, "reconcile",
		func() result.Result[model.Stats] { return f.remote.ReconcileCounters(ctx) },
		f.localStats(ctx),
	)
}

// SearchFiles lists the user's files matching the query.
func (f *PersistenceFacade) SearchFiles(ctx context.Context, query string) result.Result[[]model.FileRecord] {
	return result.Map(f.GetUserFiles(ctx), func(files []model.FileRecord) []model.FileRecord {
		return FilterFiles(files, query)
	})
}

// ClearLocal removes everything the local store holds for the current user.
func (f *PersistenceFacade) ClearLocal(ctx context.Context) result.Result[struct{}] {
	session, err := f.remote.Session()
	if err != nil {
		return fail[struct{}]("clear local", err)
	}

	err = f.local.Clear(ctx, session.ID)
	if err != nil {
		return storageFailure[struct{}]("Could not clear local storage")
	}
	return result.Ok(struct{}{})
}

func (f *PersistenceFacade) localStats(ctx context.Context) func(*model.Session) result.Result[model.Stats] {
	return func(session *model.Session) result.Result[model.Stats] {
		st, err := f.local.UserStats(ctx, session.ID)
		if err != nil {
			return storageFailure[model.Stats]("Could not read local files")
		}
		return result.Ok(st)
	}
}

// localProfile returns the stored profile, creating and storing the default
// one when none exists.
func (f *PersistenceFacade) localProfile(ctx context.Context, session *model.Session) (*model.UserProfile, error) {
	profile, err := f.local.UserProfile(ctx, session.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, localstore.ErrNotFound) {
		return nil, errors.New("Could not read local profile")
	}

	profile = model.NewUserProfile(session.ID, session.Email, f.now())
	f.saveLocalProfile(ctx, session.ID, profile)
	return profile, nil
}

func (f *PersistenceFacade) saveLocalProfile(ctx context.Context, ownerID string, profile *model.UserProfile) {
	err := f.local.SaveUserProfile(ctx, ownerID, profile)
	if err != nil {
		slog.Warn("failed to store local profile", "user_id", ownerID, "error", err)
	}
}

func storageFailure[T any](message string) result.Result[T] {
	return result.Fail[T](result.KindStorage, message)
}

func indexOf(files []model.FileRecord, id string) int {
	return slices.IndexFunc(files, func(f model.FileRecord) bool {
		return f.ID == id
	})
}
