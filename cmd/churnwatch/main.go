// cmd/churnwatch/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/wecare247/churnwatch/internal/alert"
	"github.com/wecare247/churnwatch/internal/common/config"
	"github.com/wecare247/churnwatch/internal/common/database"
	commonhttp "github.com/wecare247/churnwatch/internal/common/http"
	"github.com/wecare247/churnwatch/internal/common/logger"
	"github.com/wecare247/churnwatch/internal/model"
	"github.com/wecare247/churnwatch/internal/pipeline"
	"github.com/wecare247/churnwatch/internal/scoring"
	"github.com/wecare247/churnwatch/internal/snapshot"
	"github.com/wecare247/churnwatch/internal/store"
)

func main() {
	command := "run"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	zapLog.Info("starting churnwatch",
		zap.String("command", command),
		zap.String("environment", cfg.App.Environment),
	)

	p, cleanup, err := buildPipeline(cfg, log)
	if err != nil {
		zapLog.Fatal("pipeline setup failed", zap.Error(err))
	}
	defer cleanup()

	ctx := context.Background()

	switch command {
	case "run":
		err = p.Run(ctx)
	case "fetch":
		_, err = p.FetchAndPrep(ctx)
	case "score":
		records, loadErr := p.LoadProcessed()
		if loadErr != nil {
			err = loadErr
			break
		}
		err = p.ScoreAndAlert(ctx, records)
	default:
		fmt.Fprintf(os.Stderr, "usage: churnwatch [run|fetch|score]\n")
		os.Exit(2)
	}

	if err != nil {
		zapLog.Fatal("pipeline run failed", zap.Error(err))
	}
	zapLog.Info("pipeline finished")
}

// buildPipeline assembles the stage dependencies. Model artifacts load
// here, once per process: a missing or corrupt bundle aborts before
// any scoring starts.
func buildPipeline(cfg *config.Config, log logger.Logger) (*pipeline.Pipeline, func(), error) {
	churnModel, err := model.LoadChurn(cfg.Models.ChurnPath)
	if err != nil {
		return nil, nil, err
	}
	tenureModel, err := model.LoadTenure(cfg.Models.TenurePath)
	if err != nil {
		return nil, nil, err
	}

	clock := scoring.SystemClock()
	scorer := scoring.NewScorer(
		churnModel,
		tenureModel,
		scoring.ThresholdsFromConfig(cfg.Risk),
		clock,
		log,
	)

	deps := pipeline.Deps{
		Fetcher:   snapshot.NewFetcher(commonhttp.NewClient(cfg.Snapshot.Timeout), log),
		Batch:     scoring.NewBatchScorer(scorer, log),
		Artifacts: store.NewCSVStore(cfg.Output.Dir),
		Clock:     clock,
		Logger:    log,
	}

	cleanups := []func(){}
	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}

	if cfg.Database.Postgres.Enabled {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pg.Ping(pingCtx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { pg.Close() })
		deps.Repository = store.NewRunsRepository(pg.DB)
	}

	sink, err := buildSink(cfg, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if sink != nil {
		var state *alert.StateStore
		if cfg.Database.Redis.Enabled && cfg.Alerting.Cooldown > 0 {
			rdb, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			cleanups = append(cleanups, func() { rdb.Close() })
			state = alert.NewStateStore(rdb.Client, cfg.Alerting.Cooldown)
		}
		deps.Dispatcher = alert.NewDispatcher(sink, state, log)
	}

	return pipeline.New(cfg, deps), cleanup, nil
}

func buildSink(cfg *config.Config, log logger.Logger) (alert.Sink, error) {
	switch cfg.Alerting.Provider {
	case "smtp":
		return alert.NewSMTPSink(cfg.Alerting, log)
	case "ses":
		return alert.NewSESSink(context.Background(), cfg.Alerting, log)
	default: // "none"
		return nil, nil
	}
}
