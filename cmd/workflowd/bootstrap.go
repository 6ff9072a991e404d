package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/gestaoprojetos/workflow-system/internal/infrastructure/config"
	mongodb "github.com/gestaoprojetos/workflow-system/internal/infrastructure/db/mongo"
	redisdb "github.com/gestaoprojetos/workflow-system/internal/infrastructure/db/redis"
	"github.com/gestaoprojetos/workflow-system/pkg/logger"
)

// setup loads configuration and initialises the process logger.
func setup(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "workflowd",
	})
	return cfg, log, nil
}

func connectMongo(ctx context.Context, cfg *config.Config) (*mongodriver.Client, *mongodriver.Database, error) {
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	return client, db, nil
}

func connectRedis(ctx context.Context, cfg *config.Config) (*goredis.Client, error) {
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return rdb, nil
}
