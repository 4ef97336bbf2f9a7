package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/azvocab-bot/internal/config"
	"github.com/aliskhannn/azvocab-bot/internal/delivery/telegram"
	"github.com/aliskhannn/azvocab-bot/internal/infra/postgres"
	"github.com/aliskhannn/azvocab-bot/internal/infra/postgres/repository"
	"github.com/aliskhannn/azvocab-bot/internal/infra/redis"
	"github.com/aliskhannn/azvocab-bot/internal/logger"
	"github.com/aliskhannn/azvocab-bot/internal/scheduler"
	"github.com/aliskhannn/azvocab-bot/internal/service"
	"github.com/aliskhannn/azvocab-bot/internal/transcription"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	l, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn, err := cfg.DB.DSN()
	if err != nil {
		l.Fatal("database is not configured", zap.Error(err))
	}

	if cfg.DB.MigrateOnStart {
		if err := postgres.Migrate(dsn); err != nil {
			l.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		l.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		l.Fatal("failed to create bot", zap.Error(err))
	}
	bot.Debug = cfg.Transport.Debug
	l.Info("authorized", zap.String("account", bot.Self.UserName))

	commands := []tgbotapi.BotCommand{
		{
			Command:     "start",
			Description: "Запустить бота",
		},
		{
			Command:     "learn_now",
			Description: "Получить слова прямо сейчас",
		},
	}
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		l.Warn("failed to set bot commands", zap.Error(err))
	}

	// Repositories.
	userRepo := repository.NewUserRepository(pool)
	learningRepo := repository.NewLearningRepository(pool)
	lessonRepo := repository.NewLessonRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)
	tx := postgres.NewTransactor(pool)

	// Services.
	sender := telegram.NewSender(bot, cfg.Transport.RatePerSecond, cfg.Quiz.FastWindow, l.Named("sender"))
	dispatcher := service.NewDispatcher(userRepo, service.NewBackoff(), l.Named("dispatcher"))

	selector := service.NewWordSelector(service.Policy{
		RestBudget:     cfg.Policy.RestBudget,
		Cooldown:       cfg.Policy.Cooldown,
		ProductionMin:  cfg.Policy.ProductionMin,
		PoolMin:        cfg.Policy.PoolMin,
		RevealBatch:    cfg.Policy.RevealBatch,
		IntroduceLimit: cfg.Policy.IntroduceLimit,
		DecayAge:       cfg.Policy.DecayAge,
		DecayAmount:    cfg.Policy.DecayAmount,
		DecayLimit:     cfg.Policy.DecayLimit,
	})
	builder := service.NewQuizBuilder(transcription.New(transcription.Azerbaijani), nil)

	deliveryCfg := service.DeliveryConfig{
		FastWindow:      cfg.Quiz.FastWindow,
		ScheduledExpiry: cfg.Quiz.ScheduledExpiry,
	}
	if cfg.Decay.RestrictToAdmins {
		deliveryCfg.DecayAllowed = service.NewAllowList(cfg.Admins.Stats).Contains
	}

	deliveryService := service.NewDeliveryService(
		userRepo, learningRepo, tx, sender, dispatcher, selector, builder, deliveryCfg, l.Named("delivery"),
	)
	userService := service.NewUserService(userRepo, learningRepo, tx)
	answerService := service.NewAnswerService(userRepo, learningRepo, deliveryService, l.Named("answer"))
	progressService := service.NewProgressService(userRepo, learningRepo, statsRepo, sender, dispatcher, l.Named("progress"))
	adminService := service.NewAdminService(
		userRepo,
		sender,
		dispatcher,
		progressService,
		service.NewAllowList(cfg.Admins.Broadcast),
		service.NewAllowList(cfg.Admins.Stats),
		l.Named("admin"),
	)

	lessonService, err := service.NewLessonService(lessonRepo, cfg.Cache.LessonsMaxCost)
	if err != nil {
		l.Fatal("failed to create lesson service", zap.Error(err))
	}
	defer lessonService.Close()

	// Schedule.
	var guard scheduler.SlotGuard = scheduler.NewMemoryGuard()
	if cfg.RedisURL != "" {
		rg, err := redis.NewSlotGuard(ctx, cfg.RedisURL)
		if err != nil {
			l.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = rg.Close() }()
		guard = rg
	}

	sched := scheduler.New(cfg.Location(), guard, l.Named("scheduler"))
	if err := scheduleJobs(ctx, sched, cfg, deliveryService, progressService); err != nil {
		l.Fatal("failed to schedule jobs", zap.Error(err))
	}
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Run(ctx)
	}()

	handler := telegram.NewHandler(
		bot,
		sender,
		l.Named("telegram"),
		telegram.Services{
			Users:    userService,
			Delivery: deliveryService,
			Answers:  answerService,
			Progress: progressService,
			Lessons:  lessonService,
			Admin:    adminService,
		},
		telegram.Content{
			AlphabetPhotoURL:  cfg.Content.AlphabetPhotoURL,
			AlphabetLessonURL: cfg.Content.AlphabetLessonURL,
		},
	)
	if err := handler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Error("handler stopped", zap.Error(err))
	}

	l.Info("shutdown signal received")
	stop()
	<-schedDone
}

func scheduleJobs(
	ctx context.Context,
	sched *scheduler.Scheduler,
	cfg *config.Config,
	delivery *service.DeliveryService,
	progress *service.ProgressService,
) error {
	hour, minute, err := config.ParseClock(cfg.Schedule.Statistics)
	if err != nil {
		return err
	}
	err = sched.AddDaily(ctx, "statistics", hour, minute, func(ctx context.Context) error {
		_, err := progress.BroadcastDaily(ctx)
		return err
	})
	if err != nil {
		return err
	}

	for _, clock := range cfg.Schedule.Deliveries {
		hour, minute, err := config.ParseClock(clock)
		if err != nil {
			return err
		}
		err = sched.AddDaily(ctx, "delivery-"+clock, hour, minute, func(ctx context.Context) error {
			_, err := delivery.Broadcast(ctx)
			return err
		})
		if err != nil {
			return err
		}
	}

	return nil
}
