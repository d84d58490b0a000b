package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/entersoft/smartextract/internal/ai"
	"github.com/entersoft/smartextract/internal/cache"
	"github.com/entersoft/smartextract/internal/config"
	"github.com/entersoft/smartextract/internal/embedcache"
	"github.com/entersoft/smartextract/internal/handler"
	"github.com/entersoft/smartextract/internal/job"
	"github.com/entersoft/smartextract/internal/matcher"
	"github.com/entersoft/smartextract/internal/middleware"
	"github.com/entersoft/smartextract/internal/schedule"
	"github.com/entersoft/smartextract/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "smartextract",
		Short: "smartextract field extraction server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run smartextract server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("redis", cfg.Redis.Addr),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	store := cache.NewStore(cache.StoreConfig{
		Addr:            cfg.Redis.Addr,
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		DialTimeoutSec:  cfg.Redis.DialTimeoutSec,
		ReadTimeoutSec:  cfg.Redis.ReadTimeoutSec,
		WriteTimeoutSec: cfg.Redis.WriteTimeoutSec,
	})
	defer store.Close()

	embeddingCache := cache.NewEmbeddingCache(store, cfg.AI.EmbedModel, days(cfg.Cache.EmbeddingTTLDays, cache.DefaultEmbeddingTTL), cfg.Cache.LRUSize)
	resultCache := cache.NewResultCache(store, days(cfg.Cache.ResultTTLDays, cache.DefaultResultTTL))
	scoreCache := cache.NewScoreCache(store, days(cfg.Cache.ScoreTTLDays, cache.DefaultScoreTTL))

	var embedder ai.IEmbedder
	var generator ai.IGenerator
	if cfg.AI.Provider != "" {
		provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Args)
		if err != nil {
			return fmt.Errorf("init ai provider: %w", err)
		}
		embedder = ai.NewEmbedder(provider, cfg.AI.EmbedModel)
		generator = ai.NewGenerator(provider, cfg.AI.Model)
	}

	classifier := ai.NewHTTPClassifier(ai.ClassifierConfig{
		Endpoint:   cfg.Classifier.Endpoint,
		TimeoutSec: cfg.Classifier.TimeoutSec,
	})
	nerClient := ai.NewHTTPNERClient(ai.NERConfig{
		Endpoint:   cfg.NER.Endpoint,
		TimeoutSec: cfg.NER.TimeoutSec,
	})

	if embedder != nil {
		embedder = embedcache.WrapCacheToEmbedder(embedder, embeddingCache)
	}
	m := matcher.New(embedder)
	fallback := service.NewFallbackClient(generator, time.Duration(cfg.AI.Timeout)*time.Second)
	extractService := service.NewExtractService(m, resultCache, fallback, nerClient)
	semanticService := service.NewSemanticService(m)
	classifyService := service.NewClassifyService(classifier, scoreCache)

	deps := handler.RouterDeps{
		Extract:  handler.NewExtractHandler(extractService),
		Semantic: handler.NewSemanticHandler(semanticService),
		Classify: handler.NewClassifyHandler(classifyService),
		Cache:    handler.NewCacheHandler(store, embeddingCache, resultCache, scoreCache),
		Text:     handler.NewTextHandler(),
	}

	middlewares := []gin.HandlerFunc{
		middleware.CORS(cfg.CORS),
		gzip.Gzip(gzip.DefaultCompression),
	}
	if cfg.RateLimitMS > 0 {
		middlewares = append(middlewares, middleware.RateLimit(time.Duration(cfg.RateLimitMS)*time.Millisecond))
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(middlewares...),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewCacheProbeJob(store, embeddingCache), cfg.CacheProbeCron); err != nil {
		return fmt.Errorf("schedule cache probe: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

func days(n int, def time.Duration) time.Duration {
	if n <= 0 {
		return def
	}
	return time.Duration(n) * 24 * time.Hour
}
