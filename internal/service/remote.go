package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/templui/dashh/internal/model"
	"github.com/templui/dashh/internal/repository"
	"github.com/templui/dashh/internal/result"
	"github.com/templui/dashh/internal/stats"
	"github.com/templui/dashh/internal/validation"
)

// RemoteDataService talks to the hosted backend. Every operation other than
// login and registration requires a verified session and is scoped to the
// session's user.
type RemoteDataService struct {
	auth           Authenticator
	userRepository repository.UserRepository
	fileRepository repository.FileRepository
	timeout        time.Duration
	now            func() time.Time
	session        *model.Session
}

func NewRemoteDataService(
	auth Authenticator,
	userRepository repository.UserRepository,
	fileRepository repository.FileRepository,
	timeout time.Duration,
) *RemoteDataService {
	return &RemoteDataService{
		auth:           auth,
		userRepository: userRepository,
		fileRepository: fileRepository,
		timeout:        timeout,
		now:            time.Now,
	}
}

// NewFileID returns a time-ordered random identifier.
func NewFileID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewFileRecord builds the stored record for a payload.
func NewFileRecord(payload model.FilePayload, ownerID string, now time.Time) model.FileRecord {
	tags := payload.Tags
	if tags == nil {
		tags = []string{}
	}
	return model.FileRecord{
		ID:             NewFileID(),
		OwnerID:        ownerID,
		Name:           payload.Name,
		SizeBytes:      payload.SizeBytes,
		MimeType:       payload.MimeType,
		Content:        payload.Content,
		LastModifiedAt: payload.LastModifiedAt,
		UploadedAt:     now,
		Tags:           tags,
		Description:    payload.Description,
	}
}

func (s *RemoteDataService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Session returns the verified current session.
func (s *RemoteDataService) Session() (*model.Session, error) {
	if s.session == nil {
		return nil, ErrNotAuthenticated
	}
	err := s.auth.Verify(s.session)
	if err != nil {
		return nil, err
	}
	return s.session, nil
}

// Login authenticates and makes sure the user's profile exists. When the
// credentials are accepted but the profile cannot be provisioned, the
// session stays established and the failure is returned.
func (s *RemoteDataService) Login(ctx context.Context, email, password string) result.Result[model.AuthUser] {
	return s.login(ctx, email, password, "")
}

// Register creates the identity and logs in. An empty name defaults to the
// local part of the email.
func (s *RemoteDataService) Register(ctx context.Context, email, password, name string) result.Result[model.AuthUser] {
	cctx, cancel := s.withTimeout(ctx)
	err := s.auth.Register(cctx, email, password)
	cancel()
	if err != nil {
		return fail[model.AuthUser]("register", err)
	}

	return s.login(ctx, email, password, name)
}

func (s *RemoteDataService) login(ctx context.Context, email, password, name string) result.Result[model.AuthUser] {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	session, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return fail[model.AuthUser]("login", err)
	}
	s.session = session

	profile, err := s.ensureProfile(ctx, session, name)
	if err != nil {
		return fail[model.AuthUser]("login", err)
	}

	slog.Info("user logged in", "user_id", session.ID)

	return result.Ok(model.AuthUser{ID: session.ID, Email: session.Email, Name: profile.Name})
}

// ensureProfile returns the user's profile, creating it on first login.
func (s *RemoteDataService) ensureProfile(ctx context.Context, session *model.Session, name string) (*model.UserProfile, error) {
	profile, err := s.userRepository.ByID(ctx, session.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	profile = model.NewUserProfile(session.ID, session.Email, s.now())
	if name != "" {
		profile.Name = name
	}

	err = s.userRepository.Create(ctx, profile)
	if errors.Is(err, repository.ErrDuplicateProfile) {
		return s.userRepository.ByID(ctx, session.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	slog.Info("profile created", "user_id", session.ID)
	return profile, nil
}

func (s *RemoteDataService) Logout(ctx context.Context) result.Result[struct{}] {
	if s.session == nil {
		return result.Ok(struct{}{})
	}

	err := s.auth.Logout(ctx, s.session)
	s.session = nil
	if err != nil {
		slog.Warn("logout failed", "error", err)
	}
	return result.Ok(struct{}{})
}

func (s *RemoteDataService) UploadFile(ctx context.Context, payload model.FilePayload) result.Result[model.UploadedFile] {
	session, err := s.Session()
	if err != nil {
		return fail[model.UploadedFile]("upload", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	record := NewFileRecord(payload, session.ID, s.now())
	err = s.fileRepository.Create(ctx, &record)
	if err != nil {
		return fail[model.UploadedFile]("upload", err)
	}

	// Counters are best effort; the file is already stored.
	err = s.userRepository.IncrementCounters(ctx, session.ID, 1, record.SizeBytes)
	if err != nil {
		slog.Warn("failed to update profile counters", "user_id", session.ID, "error", err)
	}

	slog.Info("file uploaded", "user_id", session.ID, "file_id", record.ID, "size", record.SizeBytes)

	return result.Ok(model.UploadedFile{FileID: record.ID, File: record})
}

func (s *RemoteDataService) GetUserFiles(ctx context.Context) result.Result[[]model.FileRecord] {
	session, err := s.Session()
	if err != nil {
		return fail[[]model.FileRecord]("list files", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	files, err := s.fileRepository.AllUserFiles(ctx, session.ID)
	if err != nil {
		return fail[[]model.FileRecord]("list files", err)
	}
	if files == nil {
		files = []model.FileRecord{}
	}
	return result.Ok(files)
}

func (s *RemoteDataService) GetFileContent(ctx context.Context, fileID string) result.Result[model.FileContent] {
	session, err := s.Session()
	if err != nil {
		return fail[model.FileContent]("get content", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	file, err := s.fileRepository.ByID(ctx, fileID, session.ID)
	if err != nil {
		return fail[model.FileContent]("get content", err)
	}
	if !file.HasContent() {
		return fail[model.FileContent]("get content", ErrNoContent)
	}

	return result.Ok(model.FileContent{Content: file.Content, File: *file})
}

func (s *RemoteDataService) DeleteFile(ctx context.Context, fileID string) result.Result[string] {
	session, err := s.Session()
	if err != nil {
		return fail[string]("delete", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	file, err := s.fileRepository.ByID(ctx, fileID, session.ID)
	if err != nil {
		return fail[string]("delete", err)
	}

	err = s.fileRepository.Delete(ctx, file.ID, session.ID)
	if err != nil {
		return fail[string]("delete", err)
	}

	err = s.userRepository.IncrementCounters(ctx, session.ID, -1, -file.SizeBytes)
	if err != nil {
		slog.Warn("failed to update profile counters", "user_id", session.ID, "error", err)
	}

	slog.Info("file deleted", "user_id", session.ID, "file_id", file.ID)

	return result.Ok("File deleted successfully")
}

// GetUserStats prefers the profile counters when they are set and falls back
// to aggregating the file list. Today's uploads are always aggregated.
func (s *RemoteDataService) GetUserStats(ctx context.Context) result.Result[model.Stats] {
	session, err := s.Session()
	if err != nil {
		return fail[model.Stats]("stats", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	profile, err := s.userRepository.ByID(ctx, session.ID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return fail[model.Stats]("stats", err)
	}

	files, err := s.fileRepository.AllUserFiles(ctx, session.ID)
	if err != nil {
		return fail[model.Stats]("stats", err)
	}

	st := stats.Aggregate(files, s.now())
	if profile != nil {
		if profile.TotalFiles > 0 {
			st.TotalFiles = profile.TotalFiles
		}
		if profile.StorageUsedBytes > 0 {
			st.StorageUsedBytes = profile.StorageUsedBytes
		}
	}
	return result.Ok(st)
}

// GetUserProfile returns the profile, creating it when absent. When creation
// fails the default profile is returned without being stored.
func (s *RemoteDataService) GetUserProfile(ctx context.Context) result.Result[model.ProfileView] {
	session, err := s.Session()
	if err != nil {
		return fail[model.ProfileView]("get profile", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	profile, err := s.userRepository.ByID(ctx, session.ID)
	if err == nil {
		return result.Ok(profile.View())
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fail[model.ProfileView]("get profile", err)
	}

	profile = model.NewUserProfile(session.ID, session.Email, s.now())
	err = s.userRepository.Create(ctx, profile)
	if errors.Is(err, repository.ErrDuplicateProfile) {
		existing, err := s.userRepository.ByID(ctx, session.ID)
		if err != nil {
			return fail[model.ProfileView]("get profile", err)
		}
		return result.Ok(existing.View())
	}
	if err != nil {
		slog.Warn("failed to create profile", "user_id", session.ID, "error", err)
	}

	return result.Ok(profile.View())
}

func (s *RemoteDataService) UpdateUserProfile(ctx context.Context, patch model.ProfilePatch) result.Result[model.ProfileView] {
	session, err := s.Session()
	if err != nil {
		return fail[model.ProfileView]("update profile", err)
	}

	err = validation.ValidateProfilePatch(patch)
	if err != nil {
		return fail[model.ProfileView]("update profile", invalid(err))
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	profile, err := s.userRepository.Update(ctx, session.ID, patch, s.now())
	if errors.Is(err, repository.ErrUserNotFound) {
		_, err = s.ensureProfile(ctx, session, "")
		if err == nil {
			profile, err = s.userRepository.Update(ctx, session.ID, patch, s.now())
		}
	}
	if err != nil {
		return fail[model.ProfileView]("update profile", err)
	}

	slog.Info("profile updated", "user_id", session.ID, "update_count", profile.ProfileUpdateCount)

	return result.Ok(profile.View())
}

// ReconcileCounters rewrites the profile counters from the file collection.
func (s *RemoteDataService) ReconcileCounters(ctx context.Context) result.Result[model.Stats] {
	session, err := s.Session()
	if err != nil {
		return fail[model.Stats]("reconcile", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	files, err := s.fileRepository.AllUserFiles(ctx, session.ID)
	if err != nil {
		return fail[model.Stats]("reconcile", err)
	}

	st := stats.Aggregate(files, s.now())
	err = s.userRepository.SetCounters(ctx, session.ID, st.TotalFiles, st.StorageUsedBytes)
	if err != nil {
		return fail[model.Stats]("reconcile", err)
	}

	slog.Info("profile counters reconciled", "user_id", session.ID, "total_files", st.TotalFiles, "storage_used", st.StorageUsedBytes)

	return result.Ok(st)
}
