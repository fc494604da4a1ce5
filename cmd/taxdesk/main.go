package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taxdesk/internal/clock"
	"github.com/smallbiznis/taxdesk/internal/config"
	"github.com/smallbiznis/taxdesk/internal/migration"
	"github.com/smallbiznis/taxdesk/internal/observability"
	"github.com/smallbiznis/taxdesk/internal/server"
	"github.com/smallbiznis/taxdesk/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
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
