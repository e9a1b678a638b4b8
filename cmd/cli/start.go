package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mediakeep/mediakeep/internal/admins"
	"github.com/mediakeep/mediakeep/internal/bot"
	"github.com/mediakeep/mediakeep/internal/catalog"
	"github.com/mediakeep/mediakeep/internal/config"
	"github.com/mediakeep/mediakeep/internal/confirm"
	"github.com/mediakeep/mediakeep/internal/domain"
	"github.com/mediakeep/mediakeep/internal/stats"
	"github.com/mediakeep/mediakeep/internal/storage/memory"
	"github.com/mediakeep/mediakeep/internal/storage/mongodb"
)

func NewStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the bot",
		Long:  `Start the MediaKeep bot: connect to the configured store, open the Telegram long-poll loop and serve commands until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return runStart()
		},
	}

	return cmd
}

type repositories struct {
	files   domain.FileRepository
	admins  domain.AdminRepository
	stats   domain.StatsRepository
	users   domain.UserRepository
	pending domain.PendingRepository
}

func runStart() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	bootstrapIDs, err := cfg.BootstrapAdminIDs()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid ADMIN_IDS value")
	}
	if len(bootstrapIDs) == 0 {
		log.Warn().Msg("No bootstrap admins configured, only /start will be usable")
	}

	repos, err := buildRepositories(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	aggregator := stats.NewAggregator(repos.stats, repos.users)
	cat := catalog.NewCatalog(repos.files, aggregator)
	registry := admins.NewRegistry(repos.admins, bootstrapIDs)
	coordinator := confirm.NewCoordinator(repos.pending, cat, registry, aggregator)

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}

	log.Info().
		Str("username", api.Self.UserName).
		Str("store", cfg.Store).
		Int("bootstrap_admins", len(bootstrapIDs)).
		Msg("MediaKeep bot starting")

	b := bot.New(bot.Dependencies{
		API:      api,
		Username: api.Self.UserName,
		Registry: registry,
		Catalog:  cat,
		Stats:    aggregator,
		Confirm:  coordinator,
	})

	if err := b.Run(ctx); err != nil {
		return err
	}

	log.Info().Msg("MediaKeep bot stopped")
	return nil
}

func buildRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	if cfg.Store == config.StoreMemory {
		log.Warn().Msg("Using in-memory storage, all data is lost on restart")
		return &repositories{
			files:   memory.NewFileStore(),
			admins:  memory.NewAdminStore(),
			stats:   memory.NewStatsStore(),
			users:   memory.NewUserStore(),
			pending: memory.NewPendingStore(),
		}, nil
	}

	database, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}

	if err := mongodb.EnsureIndexes(ctx, database); err != nil {
		return nil, err
	}

	log.Info().Str("database", cfg.MongoDatabase).Msg("Connected to MongoDB")

	return &repositories{
		files:   mongodb.NewFileRepository(database),
		admins:  mongodb.NewAdminRepository(database),
		stats:   mongodb.NewStatsRepository(database),
		users:   mongodb.NewUserRepository(database),
		pending: mongodb.NewPendingRepository(database),
	}, nil
}
