package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/arenad/server/internal/config"
	coreevent "github.com/arenad/server/internal/core/event"
	"github.com/arenad/server/internal/data"
	"github.com/arenad/server/internal/scripting"
	"github.com/arenad/server/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             arenad  v0.1.0                \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     arena spawn & lifecycle engine        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", name)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
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
	cfgPath := "config/arenad.toml"
	if p := os.Getenv("ARENAD_CONFIG"); p != "" {
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

	// 3. Load data tables
	printSection("data")

	templates, err := data.LoadTemplateTable(cfg.Data.Templates)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	if templates.Count() == 0 {
		return fmt.Errorf("load templates: %s has no templates", cfg.Data.Templates)
	}
	printStat("enemy templates", templates.Count())

	// A malformed or missing plan degrades to the built-in fallback pool;
	// only the template table is load-or-die.
	plan, err := data.LoadSpawnPlan(cfg.Data.Plan, templates)
	if err != nil {
		log.Warn("spawn plan unusable, falling back to default", zap.Error(err))
		plan = data.DefaultPlan(templates)
	}
	printStat("spawn pools", len(plan.Pools))
	printStat("phases", len(plan.Phases))
	printStat("zones", len(plan.Zones))
	printStat("boss events", len(plan.BossEvents))

	// 4. Initialize Lua scripting engine
	script, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer script.Close()
	printOK("lua scripts loaded")

	// 5. Create session
	seed := cfg.Sim.RunSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sess, err := system.NewSession(system.SessionParams{
		RunSeed:       seed,
		PoolCapacity:  cfg.Sim.PoolCapacity,
		SpawnInterval: cfg.Sim.SpawnInterval,
		AttemptBudget: cfg.Sim.AttemptBudget,
		ThreatDecay:   cfg.Sim.ThreatDecayRate,
		Templates:     templates,
		Plan:          plan,
		Script:        script,
		Log:           log,
	})
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	// 6. Run simulation loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	reloadCh := make(chan os.Signal, 1)
	signal.Notify(reloadCh, syscall.SIGHUP)

	ticker := time.NewTicker(cfg.Sim.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("run seed %d", seed))
	printReady(fmt.Sprintf("simulation loop started (tick: %s)", cfg.Sim.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			sess.Tick(cfg.Sim.TickRate)
			drainEvents(sess, log)
		case <-reloadCh:
			// Hot reload: re-validate on the simulation goroutine between
			// ticks and swap atomically; a bad file keeps the active plan.
			log.Info("reloading spawn plan", zap.String("path", cfg.Data.Plan))
			newPlan, err := data.LoadSpawnPlan(cfg.Data.Plan, templates)
			if err != nil {
				log.Warn("spawn plan reload failed, keeping active plan", zap.Error(err))
				continue
			}
			sess.SwapPlan(newPlan, templates)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			sess.ClearAll("shutdown")
			// One final tick dispatches the teardown events to the drain.
			sess.Tick(cfg.Sim.TickRate)
			drainEvents(sess, log)
			log.Info("server stopped")
			return nil
		}
	}
}

// drainEvents stands in for the presentation/reward collaborators: it
// empties the outcome queue each tick so the buffers never back up.
func drainEvents(sess *system.Session, log *zap.Logger) {
	for _, ev := range sess.Bus().Drain() {
		switch e := ev.(type) {
		case coreevent.BossEventTriggered:
			log.Info("outcome: boss triggered", zap.String("event", e.EventID))
		case coreevent.BossEventCompleted:
			log.Info("outcome: boss completed", zap.String("event", e.EventID))
		case coreevent.EntityKilled:
			log.Debug("outcome: entity killed",
				zap.Uint64("id", uint64(e.ID)), zap.String("type", e.Type))
		case coreevent.EntityRegistered:
			log.Debug("outcome: entity registered",
				zap.Uint64("id", uint64(e.ID)), zap.String("type", e.Type))
		}
	}
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
