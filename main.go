package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/athapong/ontonote/pkg/bootstrap"
	"github.com/athapong/ontonote/pkg/config"
	"github.com/athapong/ontonote/pkg/logging"
	"github.com/athapong/ontonote/pkg/metrics"
	"github.com/athapong/ontonote/prompts"
	"github.com/athapong/ontonote/tools"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

func main() {
	envFile := flag.String("env", ".env", "Path to environment file")
	enableSSE := flag.Bool("sse", false, "Enable SSE server")
	sseAddr := flag.String("sse-addr", ":8080", "Address for SSE server to listen on")
	sseBasePath := flag.String("sse-base-path", "/mcp", "Base path for SSE endpoints")
	flag.Parse()

	// stdout carries the stdio transport, so logs go to stderr.
	boot := logrus.New()
	boot.SetOutput(os.Stderr)
	boot.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(*envFile, boot)
	if err != nil {
		boot.WithError(err).Fatal("Invalid configuration")
	}
	logger, err := logging.New(cfg.LogLevel, "json", os.Stderr)
	if err != nil {
		boot.WithError(err).Fatal("Invalid logging configuration")
	}
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.JSONFormatter{})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to start note pipeline")
	}

	if cfg.MetricsAddr != "" {
		metrics.Serve(ctx, cfg.MetricsAddr, logger)
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"ontonote",
		"1.0.0",
		server.WithLogging(),
		server.WithToolCapabilities(true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
	)

	isEnabled := tools.EnabledFilter(os.Getenv("ENABLE_TOOLS"))
	tools.RegisterToolManagerTool(mcpServer, tools.NewToolManager(isEnabled, app.Generator))
	tools.RegisterNoteTools(mcpServer, tools.NewNoteTools(app.Pipeline, app.Renderer), isEnabled)
	prompts.RegisterConceptPrompt(mcpServer)

	if !*enableSSE && os.Getenv("ENABLE_SSE") != "true" {
		if err := server.ServeStdio(mcpServer); err != nil {
			panic(fmt.Sprintf("Server error: %v", err))
		}
		return
	}

	sseServer := server.NewSSEServer(
		mcpServer,
		server.WithStaticBasePath(*sseBasePath),
		server.WithKeepAlive(true),
	)

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":      *sseAddr,
			"base_path": *sseBasePath,
		}).Info("Starting SSE server")
		if err := sseServer.Start(*sseAddr); err != nil {
			logger.WithError(err).Fatal("Failed to start SSE server")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sseServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error during SSE server shutdown")
	}
	logger.Info("SSE server shutdown complete")
}
