package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rtype-go/server/internal/admin"
	"github.com/rtype-go/server/internal/config"
	"github.com/rtype-go/server/internal/gameloop"
	gonet "github.com/rtype-go/server/internal/net"
	"github.com/rtype-go/server/internal/level"
	"github.com/rtype-go/server/internal/persist"
	"github.com/rtype-go/server/internal/reliability"
	"github.com/rtype-go/server/internal/scripting"
	"github.com/rtype-go/server/internal/server"
	"github.com/rtype-go/server/internal/wave"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              rtype-server                  \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m    authoritative UDP shoot-'em-up server   \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("RTYPE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Connect to PostgreSQL (optional) and run migrations
	printSection("match history")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var recorder persist.MatchRecorder = persist.NoopRecorder{}
	if cfg.Database.DSN != "" {
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("postgres connected")

		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")
		recorder = persist.NewRecorder(db)
	} else {
		printOK("no database configured, match history disabled")
	}
	fmt.Println()

	// 4. Load the level definition
	printSection("level")
	levelPath := filepath.Join(cfg.Server.LevelsDir, "level-1.yaml")
	lvl, warnings, err := level.Parse(levelPath)
	if err != nil {
		return fmt.Errorf("load level: %w", err)
	}
	for _, w := range warnings {
		log.Warn("level definition warning", zap.String("detail", w.String()))
	}
	printOK(fmt.Sprintf("%s (%d waves)", lvl.Metadata.Name, len(lvl.Waves)))
	fmt.Println()

	// 5. Load the optional Lua scripting engine, used as the wave driver's
	// trigger gate and (from game systems) per-enemy attack overrides.
	luaEngine, err := scripting.NewEngine(cfg.Server.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()

	driver := wave.NewDriver(lvl, luaEngine)

	// 6. Admin surface (disabled unless a password hash is configured)
	adminDispatcher := admin.NewDispatcher(cfg.Admin.PasswordHash, cfg.Admin.SessionTTL, log)

	// 7. Bind the UDP transport
	printSection("network")
	transport, err := gonet.Listen(cfg.Network.BindAddress, cfg.Network.InQueueSize, cfg.Network.OutQueueSize, log)
	if err != nil {
		return fmt.Errorf("bind transport: %w", err)
	}
	defer transport.Close()
	printOK(fmt.Sprintf("listening on %s", transport.Addr()))

	relManager := reliability.NewManager()

	// 8. Build the game session: ECS stores, systems, and packet dispatch.
	srv := server.New(cfg, log, transport, relManager, lvl, driver, luaEngine, adminDispatcher, recorder)
	fmt.Println()

	// 9. Start the background goroutines: net I/O, reliability retries, and
	// the fixed-timestep simulation loop.
	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	go transport.ReadLoop(runCtx)
	go transport.WriteLoop(runCtx)

	retryStop := make(chan struct{})
	go relManager.RunRetryWorker(cfg.Network.RetryInterval, retryStop, srv.ResendDue, srv.OnExhausted)

	loop := gameloop.New(gameloop.Config{
		TickRate:         cfg.Sim.TickRate,
		MaxTicksPerLoop:  cfg.Sim.MaxTicksPerLoop,
		EvictionInterval: cfg.Network.EvictionInterval,
	}, log, srv.Tick, srv.EvictInactive)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	loopDone := make(chan struct{})
	go func() {
		loop.Run(runCtx)
		close(loopDone)
	}()

	printSection("ready")
	printReady(fmt.Sprintf("tick rate %s, snapshot cadence %s", cfg.Sim.TickRate, cfg.Sim.SnapshotCadence))
	fmt.Println()

	sig := <-shutdownCh
	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	srv.GameOver("server_shutdown")
	// Give the reliability layer one retry interval to flush the shutdown
	// notice to clients before we tear the transport down.
	time.Sleep(cfg.Network.RetryInterval)

	close(retryStop)
	stopRun()
	<-loopDone

	log.Info("server stopped")
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
