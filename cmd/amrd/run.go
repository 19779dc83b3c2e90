package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amrlabs/amrd/pkg/auth"

	"github.com/amrlabs/amrd/config"
	"github.com/amrlabs/amrd/pkg/models"
	"github.com/amrlabs/amrd/pkg/parser"
	"github.com/amrlabs/amrd/pkg/server"
)

const versionCheckTimeout = 10 * time.Second

// run is the entrypoint for the amrd server
func run() {
	cfg := loadConfig()

	log.Infof("Starting amrd server version %s", config.VersionString)

	appState := NewAppState(cfg)

	srv := server.Create(appState)

	setupSignalHandler(srv)

	log.Infof("Listening on: %s", srv.Addr)
	err := srv.ListenAndServe()
	if err != nil {
		log.Fatal(err)
	}
}

// loadConfig loads the config file / ENV and handles the CLI options that
// short-circuit the command.
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Error configuring amrd: %s", err)
	}

	handleCLIOptions(cfg)
	applyModelFlags(cfg)
	config.SetLogLevel(cfg)
	return cfg
}

// applyModelFlags overrides model settings from the CLI flags shared by the
// serve and parse commands.
func applyModelFlags(cfg *config.Config) {
	if modelCheckpoint != "" {
		cfg.Model.Checkpoint = modelCheckpoint
	}
	if modelBeamSize > 0 {
		cfg.Model.BeamSize = modelBeamSize
	}
	if modelBatchSize > 0 {
		cfg.Model.BatchSize = modelBatchSize
	}
}

// NewAppState creates an AppState struct from the config file / ENV and wires
// the model server client into the batch parsing service.
func NewAppState(cfg *config.Config) *models.AppState {
	if cfg.Model.ServerURL == "" {
		log.Fatal("model.server_url must be set")
	}

	modelClient := parser.NewClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), versionCheckTimeout)
	defer cancel()
	if err := modelClient.CheckVersion(ctx, cfg.Model.MinServerVersion); err != nil {
		log.Fatalf("Model server version check failed: %s", err)
	}

	return &models.AppState{
		Parser: parser.NewService(modelClient, modelClient, cfg.Model.BatchSize),
		Config: cfg,
	}
}

// handleCLIOptions handles CLI options that don't require the server to run
func handleCLIOptions(cfg *config.Config) {
	if showVersion {
		fmt.Println(config.VersionString)
		os.Exit(0)
	}
	if dumpConfig {
		dumpConfigYAML(cfg)
		os.Exit(0)
	}
	if generateKey {
		fmt.Println(auth.GenerateJWT(cfg))
		os.Exit(0)
	}
}

// setupSignalHandler sets up a signal handler to shut the server down cleanly
func setupSignalHandler(srv interface{ Close() error }) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		if err := srv.Close(); err != nil {
			log.Errorf("Error closing server: %v", err)
		}
		os.Exit(0)
	}()
}
