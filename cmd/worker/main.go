// Package main - точка входа фонового процесса (Worker) Roster Hub.
//
// Worker отвечает за жизненный цикл реестра:
// - Еженедельная оценка посещаемости (группа риска, деактивация)
// - Резервное копирование реестра в zip-архивы
// - Инвалидация кешей по доменным событиям
//
// Принцип: отсутствие отметки означает отсутствие на занятии. Worker
// обеспечивает своевременное выявление детей, пропускающих встречи,
// чтобы служители могли связаться с семьёй до деактивации записи.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/church-register/roster-hub/config"
	"github.com/church-register/roster-hub/internal/application/command"
	"github.com/church-register/roster-hub/internal/application/eventhandler"
	"github.com/church-register/roster-hub/internal/application/query"
	"github.com/church-register/roster-hub/internal/domain/person"
	"github.com/church-register/roster-hub/internal/domain/shared"
	"github.com/church-register/roster-hub/internal/infrastructure/backup"
	"github.com/church-register/roster-hub/internal/infrastructure/messaging"
	"github.com/church-register/roster-hub/internal/infrastructure/persistence/postgres"
	"github.com/church-register/roster-hub/internal/infrastructure/persistence/redis"
	"github.com/church-register/roster-hub/internal/infrastructure/scheduler"
	"github.com/church-register/roster-hub/internal/infrastructure/scheduler/jobs"
	"github.com/church-register/roster-hub/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Roster Hub worker",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	var dbConn *postgres.Connection
	err = retry.DatabaseRetrier().Do(ctx, func(ctx context.Context) error {
		var connErr error
		dbConn, connErr = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		return connErr
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		err = retry.RedisRetrier().Do(ctx, func(ctx context.Context) error {
			var cacheErr error
			redisCache, cacheErr = redis.NewCache(redisCfg)
			return cacheErr
		})
		if err != nil {
			// Redis ускоряет чтение, но не является обязательным.
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ И КЕШЕЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	var personRepo person.Repository = postgres.NewPersonRepository(dbConn)
	ledger := postgres.NewAttendanceRepository(dbConn)

	var personCache person.Cache
	var countCache query.CountCache
	var reportCache query.ReportCache

	if redisCache != nil {
		if cfg.Features.IsEnabled(config.FeatureCachePersons) {
			pc := redis.NewPersonCache(redisCache)
			personCache = pc
			personRepo = redis.NewCachedPersonRepository(personRepo, pc)
		}
		if cfg.Features.IsEnabled(config.FeatureCacheCounts) {
			countCache = redis.NewCountCache(redisCache)
		}
		if cfg.Features.IsEnabled(config.FeatureCacheReports) {
			reportCache = redis.NewReportCache(redisCache)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	localBusCfg := messaging.DefaultInMemoryEventBusConfig()
	localBusCfg.Logger = log

	var eventBus shared.EventBus
	if redisCache != nil && cfg.Features.IsEnabled(config.FeatureRedisEventBus) {
		redisBus, busErr := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         messaging.NewGoRedisAdapter(redisCache.Client()),
			LocalBusConfig: localBusCfg,
			Logger:         log,
		})
		if busErr != nil {
			return fmt.Errorf("failed to create redis event bus: %w", busErr)
		}
		defer func() {
			log.Info("closing event bus...")
			_ = redisBus.Close()
		}()
		eventBus = redisBus
	} else {
		localBus := messaging.NewInMemoryEventBus(localBusCfg)
		defer func() {
			log.Info("closing event bus...")
			_ = localBus.Close()
		}()
		eventBus = localBus
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. DISPATCHER И ОБРАБОТЧИКИ СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")
	dispatcher := messaging.NewDispatcherBuilder(eventBus).
		WithLogger(log).
		Build()
	dispatcher.Use(messaging.RecoveryMiddleware(log))
	dispatcher.Use(messaging.LoggingMiddleware(log))

	onPersonChanged := eventhandler.NewOnPersonChangedHandler(personCache, countCache, log)
	for _, eventType := range onPersonChanged.EventTypes() {
		if err := dispatcher.Register(eventType, "on_person_changed", onPersonChanged.Handle); err != nil {
			return fmt.Errorf("failed to register person handler: %w", err)
		}
	}

	onAttendanceMarked := eventhandler.NewOnAttendanceMarkedHandler(reportCache, countCache, log)
	if err := dispatcher.Register(onAttendanceMarked.EventType(), "on_attendance_marked", onAttendanceMarked.Handle); err != nil {
		return fmt.Errorf("failed to register attendance handler: %w", err)
	}

	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}
	defer func() {
		log.Info("stopping dispatcher...")
		_ = dispatcher.Stop()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 9. SCHEDULER И ФОНОВЫЕ ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler is disabled, worker will only process events")
	} else {
		log.Info("initializing scheduler...")
		schedCfg := scheduler.DefaultSchedulerConfig()
		schedCfg.Logger = log
		schedCfg.Timezone = cfg.App.Location
		sched := scheduler.NewScheduler(schedCfg)

		// Еженедельная оценка посещаемости после воскресной встречи.
		evalHandler := command.NewEvaluateAttendanceHandler(personRepo, ledger, eventBus)
		evalCfg := jobs.DefaultEvaluateAttendanceConfig()
		evalCfg.Timeout = cfg.Scheduler.JobTimeout
		evalCfg.DryRun = !cfg.Features.IsEnabled(config.FeatureAutoDeactivation)
		evalJob := jobs.NewEvaluateAttendanceJob(evalHandler, log, evalCfg)

		evalSchedule, schedErr := scheduler.ParseCronExpression(fmt.Sprintf(
			"%d %d * * %d",
			cfg.Scheduler.EvaluationMinute,
			cfg.Scheduler.EvaluationHour,
			int(cfg.Scheduler.EvaluationDay),
		))
		if schedErr != nil {
			return fmt.Errorf("invalid evaluation schedule: %w", schedErr)
		}
		if err := sched.Register(evalJob, evalSchedule); err != nil {
			return fmt.Errorf("failed to register evaluation job: %w", err)
		}

		// Периодическое резервное копирование реестра.
		if cfg.Backup.Enabled {
			archiver := backup.NewArchiver(personRepo, ledger, backup.Config{
				Dir:       cfg.Backup.Dir,
				Retention: cfg.Backup.Retention,
			})
			backupJob := jobs.NewBackupJob(archiver, eventBus, log, cfg.Scheduler.JobTimeout)
			backupSchedule := scheduler.NewIntervalSchedule(cfg.Scheduler.BackupInterval)
			if err := sched.Register(backupJob, backupSchedule); err != nil {
				return fmt.Errorf("failed to register backup job: %w", err)
			}
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()

		for _, jobInfo := range sched.ListJobs() {
			log.Info("job scheduled",
				"job", jobInfo.Name,
				"schedule", jobInfo.Schedule,
				"next_run", jobInfo.NextRun,
			)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("Roster Hub worker is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	// Deferred Stop/Close выполняются в обратном порядке регистрации.
	return nil
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.App.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" || cfg.App.Environment == config.EnvDevelopment {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
