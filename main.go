package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"PredictionTradeBot/config"
	"PredictionTradeBot/internal/handlers"
	"PredictionTradeBot/internal/models"
	"PredictionTradeBot/internal/operations/market"
	"PredictionTradeBot/internal/operations/venue"
	"PredictionTradeBot/internal/repositories"
	"PredictionTradeBot/internal/services/indicators"
	"PredictionTradeBot/internal/services/paper"
	"PredictionTradeBot/internal/services/regime"
	"PredictionTradeBot/internal/services/scoring"
	"PredictionTradeBot/internal/services/strategy"
	"PredictionTradeBot/internal/services/trading"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	log := setupLogger(cfg.LogLevel)
	db := setupDatabase(cfg.Database, log)

	// Repositories
	stateRepo := repositories.NewPaperStateRepository(db)
	orderRepo := repositories.NewOrderRepository(db)

	// Collaborator clients
	spotClient := market.NewSpotClient(cfg.Exchange.APIKey, cfg.Exchange.SecretKey, log)
	venueClient := venue.NewClient(cfg.Venue, log)
	oracleClient := venue.NewOracleClient(cfg.Oracle)

	// Engines
	paperEngine := paper.NewEngine(cfg.Paper, stateRepo, log)
	liveTrader := trading.NewLiveTrader(cfg.Risk, venueClient, orderRepo, log)

	stream := market.NewTradeStream(cfg.Market.Symbol, log)

	cycle := handlers.NewCycleHandler(cfg.Market, handlers.Deps{
		Spot:     spotClient,
		Oracle:   oracleClient,
		Venue:    venueClient,
		Ticks:    stream,
		Paper:    paperEngine,
		Live:     liveTrader,
		Snapshot: indicators.NewSnapshotService(indicators.DefaultParams()),
		Regime:   regime.NewClassifier(),
		Scorer:   scoring.NewScorer(cfg.Scoring),
		Edge:     scoring.NewEdgeCalculator(),
		Decision: strategy.NewDecisionEngine(cfg.Decision),
		Log:      log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go stream.Run(ctx)
	go cycle.Run(ctx)

	log.WithFields(logrus.Fields{
		"symbol":       cfg.Market.Symbol,
		"pollInterval": cfg.Market.PollInterval,
		"paperEnabled": cfg.Paper.Enabled,
		"liveEnabled":  cfg.Risk.Enabled,
	}).Info("bot started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	cancel()
	time.Sleep(time.Second) // let the cycle loop and stream wind down
	log.Info("shutdown complete")
}

func setupLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

func setupDatabase(dbConfig config.DatabaseConfig, log *logrus.Logger) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	if err := db.AutoMigrate(&models.PaperStateRecord{}, &models.OrderRecord{}); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	return db
}
