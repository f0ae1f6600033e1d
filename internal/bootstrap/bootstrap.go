package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	hclog "github.com/hashicorp/go-hclog"

	blocklistinadapter "focus/internal/modules/blocklist/adapter/in"
	blocklistoutadapter "focus/internal/modules/blocklist/adapter/out"
	blocklistservice "focus/internal/modules/blocklist/service"
	blocklistusecase "focus/internal/modules/blocklist/usecase"
	rulesinadapter "focus/internal/modules/rules/adapter/in"
	rulesoutadapter "focus/internal/modules/rules/adapter/out"
	rulesout "focus/internal/modules/rules/port/out"
	rulesservice "focus/internal/modules/rules/service"
	rulesusecase "focus/internal/modules/rules/usecase"
	sessioninadapter "focus/internal/modules/session/adapter/in"
	sessionoutadapter "focus/internal/modules/session/adapter/out"
	sessionservice "focus/internal/modules/session/service"
	sessionusecase "focus/internal/modules/session/usecase"
	timeroutadapter "focus/internal/modules/timer/adapter/out"
	timerservice "focus/internal/modules/timer/service"
	timerusecase "focus/internal/modules/timer/usecase"
	"focus/internal/platform/clock"
	"focus/internal/platform/config"
	"focus/internal/platform/logging"
	"focus/internal/platform/sqlitedb"
)

type App struct {
	SessionCLI sessioninadapter.CLIHandler
	SitesCLI   blocklistinadapter.CLIHandler
	RulesCLI   rulesinadapter.CLIHandler
	Logger     hclog.Logger

	closers []io.Closer
}

// New wires every module against one sqlite database. Logs go to stderr,
// which the background daemon redirects to its log file.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	clk := clock.System()
	log := logging.New("focus", cfg.LogLevel, os.Stderr)

	db, err := sqlitedb.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	app := &App{Logger: log, closers: []io.Closer{db}}

	siteStore, err := blocklistoutadapter.NewSQLiteSiteStore(ctx, db)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("new site store: %w", err)
	}
	blocklistUC := blocklistusecase.NewInteractor(blocklistservice.NewSiteService(clk, siteStore))

	engine, err := newRuleEngine(ctx, cfg, db, clk, log, app)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("new rule engine: %w", err)
	}
	rulesUC := rulesusecase.NewInteractor(rulesservice.NewSynchronizer(engine, log))

	alarmStore, err := timeroutadapter.NewSQLiteAlarmStore(ctx, db)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("new alarm store: %w", err)
	}
	timer := sessionoutadapter.NewTimerAdapter(timerusecase.NewInteractor(timerservice.NewScheduler(clk, alarmStore, log)))

	controller := sessionservice.NewController(
		sessionoutadapter.NewBlocklistSourceAdapter(blocklistUC),
		sessionoutadapter.NewRulesAdapter(rulesUC),
		timer,
		clk,
		log,
		cfg.DefaultDurationMinutes,
	)
	daemon := sessionservice.NewDaemon(
		controller,
		timer,
		sessionoutadapter.NewFileDaemonStore(cfg.PIDPath, cfg.SocketPath, cfg.LogPath),
		sessionoutadapter.NewJSONRPCServer(),
		sessionoutadapter.NewJSONRPCClient(),
		cfg.DataDir,
		log,
	)

	app.SessionCLI = sessioninadapter.NewCLIHandler(sessionusecase.NewInteractor(controller, daemon))
	app.SitesCLI = blocklistinadapter.NewCLIHandler(blocklistUC)
	app.RulesCLI = rulesinadapter.NewCLIHandler(rulesUC)
	return app, nil
}

func newRuleEngine(ctx context.Context, cfg config.Config, db *sql.DB, clk clock.Clock, log hclog.Logger, app *App) (rulesout.Engine, error) {
	switch cfg.Engine {
	case config.EngineHosts:
		return rulesoutadapter.NewSQLiteRuleEngine(ctx, db, clk, rulesoutadapter.NewHostsProjector(cfg.HostsPath, cfg.SinkAddress))
	case config.EngineLedger:
		return rulesoutadapter.NewSQLiteRuleEngine(ctx, db, clk, nil)
	case config.EnginePlugin:
		engine := rulesoutadapter.NewPluginRuleEngine(cfg.PluginBinary, log)
		app.closers = append(app.closers, engine)
		return engine, nil
	default:
		return nil, fmt.Errorf("unknown rule engine %q", cfg.Engine)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
