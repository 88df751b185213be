package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"todo-dag/app/config"
	"todo-dag/app/logging"
	"todo-dag/app/server"
)

// main is the container entrypoint. Configuration comes from the file named
// by TODO_DAG_CONFIG, if any, and TODO_DAG_* environment variables.
func main() {
	cfg, err := config.Load(os.Getenv("TODO_DAG_CONFIG"))
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
