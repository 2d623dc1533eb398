// Package main is the entry point of the application
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/moor84/reversi/internal/config"
	"github.com/moor84/reversi/internal/tui"
	"github.com/moor84/reversi/pkg/client"
	"github.com/moor84/reversi/pkg/connection"
	"github.com/moor84/reversi/pkg/events"
	"github.com/moor84/reversi/pkg/protocol"
	"github.com/moor84/reversi/pkg/session"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	configPath := flag.String("config", "config.yml", "path to the config file")
	logPath := flag.String("log", "reversi.log", "log file path")
	flag.Parse()

	// Logs go to a file; the terminal itself is owned by the board UI.
	logger := initLogger(*debug, *logPath)
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", zap.Error(err))
	}

	conf := config.MustLoad(*configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logger.Info("received signal, shutting down", zap.String("signal", s.String()))
		cancel()
	}()

	publisher := events.NewPublisher()
	sess := session.New(logger)
	codec := protocol.NewCodec(protocol.Options{
		SendPlayerID:   !conf.Features.OmitPlayerID,
		LegacyMoveKeys: conf.Features.LegacyMoveKeys,
	})

	screen, err := tui.New(logger)
	if err != nil {
		logger.Fatal("failed to initialize terminal", zap.Error(err))
	}
	defer screen.Close()

	app := client.New(codec, sess, screen, publisher, logger)
	publisher.SubscribeAll(screen.HandleEvent)

	conn := connection.NewConnection(connection.Config{
		URL:       conf.Server.URL(),
		Reconnect: !conf.Features.NoReconnect,
	}, app, logger)
	app.SetTransport(conn)
	defer conn.Close()

	screen.Bind(tui.Callbacks{
		OnBoardClicked: app.ClickBoard,
		OnStartNewGame: app.StartNewGame,
		OnJoinGame:     app.JoinGame,
		OnQuit:         cancel,
	})

	go app.Run(ctx)

	// Dial in the background so the UI stays responsive while the initial
	// connection retries.
	go func() {
		if err := conn.Connect(ctx); err != nil {
			logger.Error("failed to connect", zap.Error(err))
			cancel()
		}
	}()

	go func() {
		<-ctx.Done()
		screen.Interrupt()
	}()

	screen.Loop()
	cancel()

	logger.Info("client stopped")
}

func initLogger(debug bool, path string) *zap.Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}

	logger, err := cfg.Build()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	return logger
}
