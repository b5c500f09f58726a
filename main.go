/*
main.go

Copyright © 2025 Code Monkey Cybersecurity
Contact: git@cybermonkey.net.au

This file is part of agentdedup.

This software is dual-licensed under the Do No Harm License
and the GNU Affero General Public License v3 (AGPL-3.0-or-later).
You may use, modify, and distribute it under the terms of either license.

See LICENSE.agpl and LICENSE.dnh for full details.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/CodeMonkeyCybersecurity/agentdedup/cmd"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/config"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/telemetry"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	envPath, envErr := config.LoadDotEnv()
	if envErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v; using process environment only\n", envErr)
	}

	logPath := logger.InitializeWithFallback(logger.OptionsFromEnv())
	defer logger.Sync()

	log := logger.L()
	log.Info("agentdedup starting", zap.String("log_file", logPath), zap.String("env_file", envPath))

	shutdown, err := telemetry.Init("agentdedup")
	if err != nil {
		log.Warn("Telemetry disabled", zap.Error(err))
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				log.Warn("Failed to flush telemetry", zap.Error(err))
			}
		}()
	}

	return cmd.Execute()
}
