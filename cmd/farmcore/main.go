// Farm Core - Smart Farm Automation Platform
//
// This is the main entry point for the Farm Core application. Farm Core
// runs on-site and keeps a farm operational without cloud connectivity:
//   - Threshold rule evaluation over live sensor telemetry
//   - Command dispatch to actuators with full lifecycle tracking
//   - REST API for the grower dashboard and mobile app
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/smartfarm/farmcore/migrations"

	"github.com/smartfarm/farmcore/internal/api"
	"github.com/smartfarm/farmcore/internal/auth"
	"github.com/smartfarm/farmcore/internal/command"
	"github.com/smartfarm/farmcore/internal/device"
	"github.com/smartfarm/farmcore/internal/infrastructure/config"
	"github.com/smartfarm/farmcore/internal/infrastructure/database"
	"github.com/smartfarm/farmcore/internal/infrastructure/influxdb"
	"github.com/smartfarm/farmcore/internal/infrastructure/logging"
	"github.com/smartfarm/farmcore/internal/infrastructure/mqtt"
	"github.com/smartfarm/farmcore/internal/rule"
	"github.com/smartfarm/farmcore/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// retentionInterval is how often the command cleanup job runs.
const retentionInterval = 6 * time.Hour

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Farm Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "farm", cfg.Farm.ID)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise device registry
	registry := device.NewRegistry(device.NewSQLiteRepository(db.DB))
	registry.SetLogger(log)
	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised")

	// Room access grants back both the rule service and the command
	// dispatcher authorisation checks.
	roomAccess := auth.NewRoomAccess(db.DB)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled, telemetry archival off")
	}

	// Command dispatch
	commandRepo := command.NewSQLiteRepository(db.DB)
	dispatcher := command.NewDispatcher(commandRepo, mqttClient, registry, roomAccess, log)

	// Rule evaluation
	ruleRepo := rule.NewSQLiteRepository(db.DB)
	engine := rule.NewEngine(ruleRepo, dispatcher, log)
	ruleService := rule.NewService(ruleRepo, roomAccess, registry, command.Validator{}, log)

	// Telemetry ingest. The recorder stays nil when InfluxDB is disabled.
	var recorder telemetry.Recorder
	if influxClient != nil {
		recorder = influxClient
	}
	handler := telemetry.NewHandler(engine, dispatcher, registry, recorder, log)

	topics := mqtt.Topics{}
	qos := byte(cfg.MQTT.QoS)
	if err := mqttClient.Subscribe(topics.FarmTelemetry(cfg.Farm.ID), qos, handler.HandleTelemetry); err != nil {
		return fmt.Errorf("subscribing to telemetry: %w", err)
	}
	if err := mqttClient.Subscribe(topics.FarmStatus(cfg.Farm.ID), qos, handler.HandleStatus); err != nil {
		return fmt.Errorf("subscribing to status: %w", err)
	}
	log.Info("telemetry subscriptions active", "farm", cfg.Farm.ID)

	// HTTP API
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		Security: cfg.Security,
		Logger:   log,
		Rules:    ruleService,
		Commands: dispatcher,
		Registry: registry,
		Access:   roomAccess,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Background command retention
	if cfg.Commands.RetentionDays > 0 {
		go runRetention(ctx, commandRepo, cfg.Commands.RetentionDays, log)
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("Farm Core stopped")
	return nil
}

// runRetention periodically removes terminal commands older than the
// configured retention window. It runs until the context is cancelled.
func runRetention(ctx context.Context, repo command.Repository, retentionDays int, log *logging.Logger) {
	ticker := time.NewTicker(retentionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
			deleted, err := repo.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				log.Error("command retention cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				log.Info("command retention cleanup", "deleted", deleted, "cutoff", cutoff)
			}
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses FARMCORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FARMCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// influxClient may be nil when archival is disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
