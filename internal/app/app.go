package app

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/varoOP/anistream/internal/aniskip"
	"github.com/varoOP/anistream/internal/browse"
	"github.com/varoOP/anistream/internal/config"
	"github.com/varoOP/anistream/internal/database"
	"github.com/varoOP/anistream/internal/domain"
	"github.com/varoOP/anistream/internal/logger"
	"github.com/varoOP/anistream/internal/notification"
	"github.com/varoOP/anistream/internal/openani"
	"github.com/varoOP/anistream/internal/server"
)

// App represents the main application with all dependencies initialized
type App struct {
	log                 zerolog.Logger
	config              *domain.Config
	db                  *database.DB
	content             openani.Service
	skip                aniskip.Service
	seenRepo            domain.SeenEpisodeRepo
	notificationService domain.NotificationService
}

// NewApp loads the configuration and builds the application from it.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewFromOptions(logger.Options{
		Level:      cfg.LogLevel,
		Path:       cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})

	return New(log, cfg)
}

// New builds the application from an explicit configuration. Persistence is
// enabled only when cfg.DatabasePath is set.
func New(log zerolog.Logger, cfg *domain.Config) (*App, error) {
	a := &App{
		log:                 log,
		config:              cfg,
		content:             openani.NewService(log, cfg),
		notificationService: notification.NewService(log, cfg.DiscordWebhookURL),
	}

	var skipCache domain.SkipCacheRepo
	if cfg.DatabasePath != "" {
		db, err := database.NewDB(cfg.DatabasePath, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.db = db
		skipCache = database.NewSkipCacheRepo(log, db)
		a.seenRepo = database.NewSeenEpisodeRepo(log, db)
	}

	a.skip = aniskip.NewService(log, cfg, skipCache)

	return a, nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) Logger() zerolog.Logger { return a.log }

func (a *App) Config() *domain.Config { return a.config }

func (a *App) Content() openani.Service { return a.content }

func (a *App) SkipTimes() aniskip.Service { return a.skip }

// Browser returns a filter controller backed by the content service.
func (a *App) Browser(opts ...browse.Option) *browse.Controller {
	opts = append([]browse.Option{browse.WithDebounce(a.config.Debounce)}, opts...)
	return browse.NewController(a.log, a.content, opts...)
}

// Serve runs the HTTP API until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	return server.New(a.log, a.config.ListenAddr, a.content, a.skip).Run(ctx)
}

// NotifyResult summarizes one NotifyLatest run.
type NotifyResult struct {
	Fetched   int  `json:"fetched" yaml:"fetched"`
	Announced int  `json:"announced" yaml:"announced"`
	Seeded    bool `json:"seeded" yaml:"seeded"`
}

// NotifyLatest announces episodes of the latest feed that were not seen on
// a previous run. The very first run only records the feed.
func (a *App) NotifyLatest(ctx context.Context) (result NotifyResult, err error) {
	defer func() {
		if err != nil && ctx.Err() == nil {
			if notifyErr := a.notificationService.SendError(ctx, err); notifyErr != nil {
				a.log.Warn().Err(notifyErr).Msg("Failed to send error notification")
			}
		}
	}()

	if a.seenRepo == nil {
		return result, errors.New("notify needs a database, set database_path")
	}

	latest, err := a.content.Latest(ctx, 1, a.config.LatestLimit)
	if err != nil {
		return result, err
	}
	result.Fetched = len(latest.Episodes)
	if result.Fetched == 0 {
		a.log.Info().Msg("Latest feed is empty, nothing to do")
		return result, nil
	}

	keys := lo.Map(latest.Episodes, func(e domain.LatestEpisode, _ int) domain.EpisodeKey { return e.Key() })

	seen, err := a.seenRepo.Count(ctx)
	if err != nil {
		return result, errors.Wrap(err, "failed to count seen episodes")
	}
	if seen == 0 {
		if err := a.seenRepo.MarkSeen(ctx, keys, false); err != nil {
			return result, errors.Wrap(err, "failed to seed seen episodes")
		}
		a.log.Info().Int("episodes", len(keys)).Msg("First run, recorded the current feed without announcing it")
		result.Seeded = true
		return result, nil
	}

	unseen, err := a.seenRepo.FilterUnseen(ctx, keys)
	if err != nil {
		return result, errors.Wrap(err, "failed to filter seen episodes")
	}
	if len(unseen) == 0 {
		a.log.Info().Msg("No new episodes")
		return result, nil
	}

	isNew := lo.SliceToMap(unseen, func(k domain.EpisodeKey) (domain.EpisodeKey, bool) { return k, true })

	// The feed is newest first; announce in release order.
	fresh := make([]domain.LatestEpisode, 0, len(unseen))
	for i := len(latest.Episodes) - 1; i >= 0; i-- {
		if isNew[latest.Episodes[i].Key()] {
			fresh = append(fresh, latest.Episodes[i])
		}
	}

	if err := a.notificationService.SendEpisodes(ctx, fresh); err != nil {
		return result, errors.Wrap(err, "failed to announce episodes")
	}

	if err := a.seenRepo.MarkSeen(ctx, unseen, true); err != nil {
		return result, errors.Wrap(err, "failed to record announced episodes")
	}

	result.Announced = len(fresh)
	a.log.Info().Int("episodes", result.Announced).Msg("Announced new episodes")

	return result, nil
}
