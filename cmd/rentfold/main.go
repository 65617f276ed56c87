package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/rentfold/rentfold/internal/clock"
	"github.com/rentfold/rentfold/internal/config"
	"github.com/rentfold/rentfold/internal/logger"
	"github.com/rentfold/rentfold/internal/migration"
	"github.com/rentfold/rentfold/internal/observability"
	"github.com/rentfold/rentfold/internal/scheduler"
	"github.com/rentfold/rentfold/internal/server"
	"github.com/rentfold/rentfold/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		observability.Module,
		migration.Module,

		scheduler.Module,
		server.Module,

		fx.Invoke(func(cfg config.Config) error {
			return cfg.Validate()
		}),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
