package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vipadm/api-mocker/internal/adapters/httpapi"
	"github.com/vipadm/api-mocker/internal/adapters/notify"
	sqliteadapter "github.com/vipadm/api-mocker/internal/adapters/sqlite"
	"github.com/vipadm/api-mocker/internal/adapters/sqlite/gormsqlite"
	"github.com/vipadm/api-mocker/internal/config"
	"github.com/vipadm/api-mocker/internal/core/domain"
	"github.com/vipadm/api-mocker/internal/core/ports"
	"github.com/vipadm/api-mocker/internal/core/usecase"
	"github.com/vipadm/api-mocker/migrations"
)

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func NewServer(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*http.Server, io.Closer, error) {
	db, err := gormsqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := migrations.Up(migrateCtx, writeSQLDB); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	defRepo := sqliteadapter.NewDefinitionRepository(db)
	historyRepo := sqliteadapter.NewHistoryRepository(db)
	userRepo := sqliteadapter.NewUserRepository(db)
	groupRepo := sqliteadapter.NewGroupRepository(db)
	outboxRepo := sqliteadapter.NewOutboxRepository(db)

	options, err := loadOptionsValidator(cfg.Options.SchemaPath)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	publisher, publisherCloser, err := buildPublisher(cfg.Notify, log)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	editService := usecase.NewEditService(defRepo, historyRepo, userRepo, groupRepo, outboxRepo, options, log)
	definitionService := usecase.NewDefinitionService(defRepo, historyRepo, userRepo, groupRepo, options, log)
	followService := usecase.NewFollowService(defRepo, log)
	authService := usecase.NewAuthService(userRepo)

	dispatcher := usecase.NewNotifyDispatcher(outboxRepo, publisher, cfg.Notify.Interval, cfg.Notify.BatchSize, log)
	dispatcher.Start(context.Background())

	if cfg.Bootstrap.Token != "" {
		if err := bootstrapUser(userRepo, cfg.Bootstrap); err != nil {
			_ = dispatcher.Close()
			_ = db.Close()
			return nil, nil, err
		}
	}

	handler := httpapi.NewHandler(editService, definitionService, followService, authService)

	server := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server, resourceCloser{closers: []io.Closer{dispatcher, publisherCloser, db}}, nil
}

func loadOptionsValidator(schemaPath string) (*usecase.OptionsValidator, error) {
	var schema []byte
	if schemaPath != "" {
		data, err := os.ReadFile(schemaPath)
		if err != nil {
			return nil, fmt.Errorf("read options schema: %w", err)
		}
		schema = data
	}
	return usecase.NewOptionsValidator(schema)
}

func buildPublisher(cfg config.NotifyConfig, log *logrus.Logger) (ports.NotificationPublisher, io.Closer, error) {
	switch cfg.Backend {
	case "amqp":
		pub, err := notify.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			return nil, nil, fmt.Errorf("amqp publisher: %w", err)
		}
		return pub, pub, nil
	case "webhook":
		return notify.NewWebhookPublisher(cfg.Webhook.URL, cfg.Webhook.Secret, cfg.Webhook.Timeout), nil, nil
	default:
		return notify.NewLogPublisher(log), nil, nil
	}
}

func bootstrapUser(users ports.UserDirectory, cfg config.BootstrapConfig) error {
	name := cfg.UserName
	if name == "" {
		name = "bootstrap"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := users.Upsert(ctx, domain.User{
		ID:        cfg.UserID,
		Name:      name,
		Email:     cfg.Email,
		TokenHash: usecase.HashToken(cfg.Token),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("bootstrap user: %w", err)
	}
	return nil
}
