/*
 * Copyright 2025 QuickBars.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/grandcat/zeroconf"
	"github.com/quickbars/bridge/pkg/bridge"
	"github.com/quickbars/bridge/pkg/bus"
	"github.com/quickbars/bridge/pkg/config"
	"github.com/quickbars/bridge/pkg/logger"
	"github.com/quickbars/bridge/pkg/session"
)

var errFailedToLoadConfig = fmt.Errorf("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/quickbars/bridge.json", "Path to bridge config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgLoader := config.NewConfig(nil)

	var cfg session.Config

	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = &logger.Config{Level: "info", Output: "stdout"}
	}

	bridgeLogger, err := logger.NewComponentLogger(logConfig, "quickbars-bridge")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	natsBus, err := bus.Connect(cfg.NATSURL, bridgeLogger)
	if err != nil {
		return err
	}

	defer natsBus.Close()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	registry := session.NewRegistry(bridgeLogger)
	br := bridge.New(natsBus, bridgeLogger)

	deps := session.Deps{
		Bridge:  br,
		Bus:     natsBus,
		Browser: resolver,
		Store:   registry,
		Logger:  bridgeLogger,
	}

	for _, pairing := range cfg.Pairings {
		s, err := session.NewSession(pairing.Identity, pairing.Name, pairing.Params(), deps)
		if err != nil {
			return fmt.Errorf("failed to build session %s: %w", pairing.Identity, err)
		}

		if err := registry.Add(s); err != nil {
			return err
		}

		if err := s.Start(ctx); err != nil {
			return fmt.Errorf("failed to start session %s: %w", pairing.Identity, err)
		}
	}

	bridgeLogger.Info().Int("sessions", len(cfg.Pairings)).Msg("QuickBars bridge running")

	<-ctx.Done()

	registry.StopAll()

	return nil
}
