/*
 * This file is part of Voice Hub (https://github.com/veristruct/voice-hub).
 * Copyright (C) 2025 Veristruct
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/veristruct/voice-hub/internal/asr"
	"github.com/veristruct/voice-hub/internal/config"
	"github.com/veristruct/voice-hub/internal/logging"
	"github.com/veristruct/voice-hub/internal/messaging"
	"github.com/veristruct/voice-hub/internal/server"
	"github.com/veristruct/voice-hub/internal/storage"
)

func main() {
	// Initialize structured logging
	if err := logging.Initialize(); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	cfg, err := config.Load()
	if err != nil {
		logging.LogError(err, "Invalid configuration")
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Transcription history storage
	db, err := storage.NewDatabase(storage.DatabaseConfig{Path: cfg.Database.Path})
	if err != nil {
		logging.LogError(err, "Failed to open database")
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	store := storage.NewTranscriptionEventsStore(db)

	// Message bus; the hub still serves HTTP if NATS is down
	bus := messaging.NewNATSServiceWithURL(cfg.NATS.URL)
	if err := bus.Connect(); err != nil {
		logging.LogError(err, "NATS unavailable, continuing without messaging")
		bus = nil
	} else {
		defer bus.Close()
	}

	// Speech pipeline
	transcriber := asr.New()
	defer transcriber.Close()

	if modelsPresent(cfg.Speech.EncoderPath, cfg.Speech.DecoderPath) {
		if err := transcriber.LoadModels(context.Background(), cfg.Speech.EncoderPath, cfg.Speech.DecoderPath); err != nil {
			logging.LogError(err, "Failed to load speech models, transcription disabled")
		}
	} else {
		logging.Sugar.Warnw("Speech model files not found, transcription disabled",
			"encoder", cfg.Speech.EncoderPath,
			"decoder", cfg.Speech.DecoderPath)
	}

	srv := server.New(cfg, transcriber, store, bus)

	logging.Sugar.Infow("🚀 voice-hub starting",
		"http_port", cfg.Server.Port,
		"db_path", cfg.Database.Path,
		"model_loaded", transcriber.Loaded(),
	)

	if bus != nil {
		if err := bus.PublishSystemEvent("startup", "voice hub online"); err != nil {
			logging.LogError(err, "Failed to publish startup event")
		}
	}

	// Shut down cleanly on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Sugar.Infow("Signal received, shutting down", "signal", sig.String())
		if err := srv.Stop(); err != nil {
			logging.LogError(err, "Graceful shutdown failed")
		}
	}()

	if err := srv.Start(); err != nil {
		logging.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}

func modelsPresent(paths ...string) bool {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}
