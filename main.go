package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"puntibot/config"
	"puntibot/database"
	"puntibot/logger"
	"puntibot/web"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"
)

func main() {
	// a missing .env is fine, the environment may already be populated
	godotenv.Load()

	log.Printf("%s %s", config.GetName(), config.GetVersion())

	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatalf("unknown log level: %s", config.GetLogLevel())
	}

	if config.GetBotToken() == "" {
		log.Fatal("BOT_TOKEN environment variable is not set")
	}

	if err := database.Init(config.GetDataFolderPath()); err != nil {
		log.Fatalf("init data folder %s failed: %v", config.GetDataFolderPath(), err)
	}

	server := web.NewServer()
	if err := server.Start(); err != nil {
		log.Fatalf("start server failed: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down ...")
	server.Stop()
}
