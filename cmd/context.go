package cmd

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vonnieda/dimple/core/config"
	"github.com/vonnieda/dimple/core/database"
	"github.com/vonnieda/dimple/core/logger"
	"github.com/vonnieda/dimple/core/merge"
	"github.com/vonnieda/dimple/core/storage"
	"github.com/vonnieda/dimple/core/store"
	"github.com/vonnieda/dimple/feature/library"
	"github.com/vonnieda/dimple/feature/providers/fetch"
	"github.com/vonnieda/dimple/feature/providers/musicbrainz"
	"github.com/vonnieda/dimple/feature/sync"
)

// appContext bundles the wired components every subcommand needs. All
// lifecycle is caller-owned: nothing here registers globals beyond the
// zap replacement in start.
type appContext struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     *store.Store
	merger    *merge.Engine
	librarian *library.Librarian
	syncer    *sync.Engine
	notifier  *store.Notifier
}

// newAppContext loads configuration and wires the store, merge engine,
// librarian and sync engine together.
func newAppContext() (*appContext, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, err
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	actor := cfg.Sync.Actor
	if actor == "" {
		actor = uuid.NewString()
		log.Warn("no sync actor configured, generated one for this run; set SYNC_ACTOR to make it durable",
			zap.String("actor", actor))
	}

	notifier := store.NewNotifier(64)
	s, err := store.New(db, actor, notifier, log)
	if err != nil {
		return nil, err
	}

	merger := merge.New(s, log)

	fetcher := fetch.New(cfg.Library.CacheDir, 30*time.Second, log)
	providers := []library.Provider{
		musicbrainz.New(cfg.Library.MusicBrainzURL, fetcher, log),
	}
	librarian := library.New(s, merger, providers, log)

	var syncer *sync.Engine
	if cfg.Sync.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, err
		}
		syncer, err = sync.NewEngine(s, merger, client, cfg.Storage.Bucket, cfg.Sync, log)
		if err != nil {
			return nil, err
		}
	}

	return &appContext{
		cfg:       cfg,
		logger:    log,
		store:     s,
		merger:    merger,
		librarian: librarian,
		syncer:    syncer,
		notifier:  notifier,
	}, nil
}

func (a *appContext) close() {
	a.notifier.Close()
	_ = a.logger.Sync()
}
