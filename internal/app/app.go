package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/templui/dashh/internal/config"
	"github.com/templui/dashh/internal/db"
	"github.com/templui/dashh/internal/localstore"
	"github.com/templui/dashh/internal/repository"
	"github.com/templui/dashh/internal/service"
	"github.com/templui/dashh/internal/storage"
	"github.com/templui/dashh/internal/validation"
)

type App struct {
	Cfg               *config.Config
	DB                *sqlx.DB
	Mongo             *mongo.Client
	AuthService       *service.AuthService
	RemoteDataService *service.RemoteDataService
	Persistence       *service.PersistenceFacade
	ExportService     *service.ExportService
	Constraints       validation.FileConstraints
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize local database
	database, err := db.Init(cfg.LocalDBDriver, cfg.LocalDBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.LocalDBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Remote document store
	client, remoteDB, err := repository.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.RemoteTimeout)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize remote store: %v", err)
	}

	indexCtx, cancel := context.WithTimeout(ctx, cfg.RemoteTimeout)
	err = repository.EnsureIndexes(indexCtx, remoteDB)
	cancel()
	if err != nil {
		slog.Warn("could not ensure remote indexes", "error", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(remoteDB)
	fileRepository := repository.NewFileRepository(remoteDB)
	credentialRepository := repository.NewCredentialRepository(remoteDB)

	// Export storage (optional)
	exportStorage, err := storage.New(ctx, cfg)
	if err != nil {
		slog.Warn("export storage unavailable", "error", err)
		exportStorage = nil
	}

	// Services
	authService := service.NewAuthService(credentialRepository, cfg.JWTSecret, cfg.JWTExpiry)
	remoteDataService := service.NewRemoteDataService(authService, userRepository, fileRepository, cfg.RemoteTimeout)
	localStore := localstore.New(database, cfg.LocalPrefix)
	persistence := service.NewPersistenceFacade(remoteDataService, localStore)
	exportService := service.NewExportService(persistence, exportStorage)

	constraints := validation.DefaultConstraints
	constraints.MaxSize = cfg.UploadMaxSize

	return &App{
		Cfg:               cfg,
		DB:                database,
		Mongo:             client,
		AuthService:       authService,
		RemoteDataService: remoteDataService,
		Persistence:       persistence,
		ExportService:     exportService,
		Constraints:       constraints,
	}, nil
}

// ResetLocal drops and recreates the local store for every account.
func (a *App) ResetLocal() error {
	return db.ResetSchema(a.DB.DB, a.Cfg.LocalDBDriver)
}

func (a *App) Close(ctx context.Context) error {
	if a.Mongo != nil {
		err := a.Mongo.Disconnect(ctx)
		if err != nil {
			slog.Warn("failed to disconnect remote store", "error", err)
		}
	}
	return db.Close(a.DB)
}
