package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mzeldin/upkeep/internal/maintenance/controller"
	"github.com/mzeldin/upkeep/internal/maintenance/db"
	"github.com/mzeldin/upkeep/internal/maintenance/events"
	"github.com/mzeldin/upkeep/internal/maintenance/handlers"
	"github.com/mzeldin/upkeep/internal/maintenance/notify"
	"github.com/mzeldin/upkeep/internal/maintenance/scheduler"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config struct for YAML configuration
type Config struct {
	HTTPPort          int      `yaml:"HTTP_PORT"`
	DBHost            string   `yaml:"DB_HOST"`
	DBPort            int      `yaml:"DB_PORT"`
	DBUser            string   `yaml:"DB_USER"`
	DBPassword        string   `yaml:"DB_PASSWORD"`
	DBName            string   `yaml:"DB_NAME"`
	DBSSLMode         string   `yaml:"DB_SSLMODE"`
	KafkaBrokers      []string `yaml:"KAFKA_BROKERS"`
	Topic             string   `yaml:"TOPIC"`
	JWTSecret         string   `yaml:"JWT_SECRET"`
	SchedulerInterval int      `yaml:"SCHEDULER_INTERVAL_MINUTES"`
	LowStockThreshold int      `yaml:"LOW_STOCK_THRESHOLD"`
	TrialDays         int      `yaml:"TRIAL_DAYS"`
	NoticeDays        int      `yaml:"EXPIRY_NOTICE_DAYS"`
	TrialNoticeDays   int      `yaml:"TRIAL_NOTICE_DAYS"`
}

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	repo, err := db.NewRepository(&db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatal("failed to initialize database", err)
	}
	defer repo.Close()

	producer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
	if err != nil {
		log.Fatal("failed to initialize Kafka producer", err)
	}
	defer producer.Close()

	dispatcher := notify.NewDispatcher(producer, logger)

	requestSvc := controller.NewRequestService(repo, dispatcher, logger)
	workOrderSvc := controller.NewWorkOrderService(repo, dispatcher, logger, cfg.LowStockThreshold)
	scheduleSvc := controller.NewScheduleService(repo, dispatcher, logger)
	subscriptionSvc := controller.NewSubscriptionService(repo, dispatcher, logger,
		cfg.TrialDays, cfg.NoticeDays, cfg.TrialNoticeDays)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(scheduleSvc, subscriptionSvc,
		time.Duration(cfg.SchedulerInterval)*time.Minute, logger)
	go sched.Run(ctx)

	handler := handlers.NewHandler(requestSvc, workOrderSvc, scheduleSvc, subscriptionSvc, repo, logger)
	router := handlers.NewRouter(handler, cfg.JWTSecret)

	go func() {
		if err := router.Run(fmt.Sprintf(":%d", cfg.HTTPPort)); err != nil {
			logger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()
	logger.Info("upkeep service started", zap.Int("port", cfg.HTTPPort))

	waitForShutdown(cancel, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// loadConfig loads configuration. Use real config tooling (e.g. Viper) in production.
func loadConfig() (*Config, error) {
	configPath := filepath.Join("internal", "maintenance", "config", "config.yaml")
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	err = yaml.Unmarshal(file, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// waitForShutdown blocks until an interrupt or SIGTERM is received.
func waitForShutdown(cancel context.CancelFunc, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	cancel()
	logger.Info("service stopped properly")
}
