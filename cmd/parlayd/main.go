package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"parlay-ev-bot/internal/alerts"
	"parlay-ev-bot/internal/analysis"
	"parlay-ev-bot/internal/config"
	"parlay-ev-bot/internal/engine"
	"parlay-ev-bot/internal/fairvalue"
	"parlay-ev-bot/internal/logging"
	"parlay-ev-bot/internal/metrics"
	"parlay-ev-bot/internal/policies"
	"parlay-ev-bot/internal/server"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New("parlayd", cfg.Env)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := config.Validate(cfg); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(reg); err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}

	// Shared fair-value cache tier
	var far fairvalue.Cache
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = fairvalue.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis disabled, using in-process cache only", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			defer rdb.Close()
			far = fairvalue.NewRedisCache(rdb, cfg.CacheTTL, logger)
		}
	}
	resolver := engine.NewResolver(cfg, far, logger)

	analysisCfg, filePolicies, err := engine.AnalysisConfig(cfg)
	if err != nil {
		logger.Fatal("failed to load policy file", zap.Error(err))
	}

	store, err := policies.NewDB(cfg.PolicyDBPath)
	if err != nil {
		logger.Fatal("failed to open policy database", zap.String("path", cfg.PolicyDBPath), zap.Error(err))
	}
	defer store.Close()
	if err := engine.PreparePolicies(store, cfg.BoostedBook, filePolicies, logger); err != nil {
		logger.Fatal("failed to prepare policies", zap.Error(err))
	}

	var pub alerts.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := alerts.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			logger.Fatal("failed to create kafka publisher", zap.Error(err))
		}
		pub = kp
	}
	notifier := alerts.NewNotifier(cfg.AlertCooldown, logger, pub)
	notifier.SetBankroll(cfg.Bankroll)
	defer notifier.Close()

	evaluator := analysis.NewEvaluator(resolver, analysisCfg, logger)
	searcher := analysis.NewSearcher(evaluator, logger)
	source := engine.NewSource(cfg)

	eng := engine.New(source, searcher, store, notifier, cfg, resolver.HasExternal(), logger)

	api := server.New(server.Deps{
		Evaluator:      evaluator,
		Searcher:       searcher,
		Source:         source,
		Store:          store,
		Gatherer:       reg,
		Health:         healthCheck(rdb),
		Log:            logger,
		Bookmaker:      cfg.BoostedBook,
		ParlaySize:     cfg.ParlaySize,
		MaxEvaluations: cfg.SearchMaxEvaluations,
		Refine:         resolver.HasExternal(),
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
	}

	logger.Info("parlayd starting",
		zap.String("port", cfg.Port),
		zap.String("feed", cfg.FeedSource),
		zap.Strings("sports", cfg.Sports),
		zap.String("sharp_book", cfg.SharpBook),
		zap.String("boosted_book", cfg.BoostedBook),
		zap.Bool("devig_service", resolver.HasExternal()),
		zap.Bool("redis", far != nil),
		zap.Bool("kafka", pub != nil),
		zap.Float64("ev_threshold_pct", cfg.EVAlertThreshold),
		zap.String("bankroll", config.FormatBankroll(cfg.Bankroll)),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			cancel()
		}
	}()

	eng.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Info("parlayd stopped")
}

func healthCheck(rdb *redis.Client) server.HealthFunc {
	if rdb == nil {
		return nil
	}
	return func(ctx context.Context) error {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	}
}
