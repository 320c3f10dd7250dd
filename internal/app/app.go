// Package app wires every runtime component from the loaded configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"tg-filedrop/internal/broadcast"
	"tg-filedrop/internal/config"
	"tg-filedrop/internal/crash"
	"tg-filedrop/internal/delivery"
	"tg-filedrop/internal/logger"
	"tg-filedrop/internal/models"
	"tg-filedrop/internal/scheduler"
	"tg-filedrop/internal/storage"
	"tg-filedrop/internal/transport"
	"tg-filedrop/internal/upload"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const pendingInputExpireMinutes = 10

// Context aggregates the runtime dependencies and owns their lifecycle. It is
// passed explicitly to everything that needs it.
type Context struct {
	Config      *config.Config
	BotUsername string

	DB    *gorm.DB
	Redis *redis.Client

	Sessions  storage.SessionStore
	SessionDB *storage.SessionRepository
	Users     *storage.UserRepository
	Messages  *storage.MessageRepository
	Stats     *storage.StatsRepository
	Transport transport.Transport
	Uploads   *upload.Manager
	Scheduler *scheduler.Scheduler
	Delivery  *delivery.Engine
	Broadcast *broadcast.Broadcaster
	Inputs    *models.PendingInputManager
	StartedAt time.Time

	stopJanitor context.CancelFunc
}

// New opens storage, runs migrations and builds every component on top of tr
func New(ctx context.Context, cfg *config.Config, tr transport.Transport, botUsername string) (*Context, error) {
	db, err := storage.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(db); err != nil {
		storage.Close(db)
		return nil, err
	}

	app := &Context{
		Config:      cfg,
		BotUsername: botUsername,
		DB:          db,
		Transport:   tr,
		StartedAt:   time.Now(),
	}

	app.SessionDB = storage.NewSessionRepository(db)
	app.Sessions = app.SessionDB
	if cfg.Redis.Enabled {
		client, err := storage.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			storage.Close(db)
			return nil, fmt.Errorf("failed to initialize session cache: %w", err)
		}
		app.Redis = client
		app.Sessions = storage.NewCachedSessionStore(app.SessionDB, client, cfg.Redis.CacheTTL)
		logger.Infof("Session cache enabled (ttl %s)", cfg.Redis.CacheTTL)
	}

	app.Users = storage.NewUserRepository(db)
	app.Messages = storage.NewMessageRepository(db)
	app.Stats = storage.NewStatsRepository(app.Users, app.SessionDB)

	app.Uploads = upload.NewManager(app.Sessions, cfg.Upload)
	app.Scheduler = scheduler.New(tr)
	app.Delivery = delivery.NewEngine(app.Sessions, tr, app.Scheduler, cfg.Delivery.SendInterval)
	app.Broadcast = broadcast.New(tr, cfg.Broadcast.SendInterval)
	app.Inputs = models.NewPendingInputManager(pendingInputExpireMinutes)

	janitorCtx, cancel := context.WithCancel(context.Background())
	app.stopJanitor = cancel
	crash.SafeGoroutine("pending-input-janitor", func() {
		app.sweepPendingInputs(janitorCtx)
	})

	return app, nil
}

// IsOwner reports whether userID is the configured owner
func (a *Context) IsOwner(userID int64) bool {
	return userID == a.Config.Bot.OwnerID
}

func (a *Context) sweepPendingInputs(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.Inputs.CleanupExpired(); n > 0 {
				logger.Debugf("Dropped %d expired pending inputs", n)
			}
		}
	}
}

// Close releases resources in reverse order of creation. Deletions that are
// still scheduled are lost.
func (a *Context) Close() {
	if a.stopJanitor != nil {
		a.stopJanitor()
	}
	if pending := a.Scheduler.Stats().Pending; pending > 0 {
		logger.Warningf("Shutting down with %d scheduled deletions outstanding", pending)
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Warningf("Error closing redis: %v", err)
		}
	}
	if err := storage.Close(a.DB); err != nil {
		logger.Warningf("Error closing database: %v", err)
	}
}
