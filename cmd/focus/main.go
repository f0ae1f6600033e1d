package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"focus/internal/bootstrap"
	sessiondto "focus/internal/modules/session/dto"
	"focus/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:           "focus",
		Short:         "Block distracting sites for a timed focus session",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", config.DefaultDataDir(), "focus state directory")

	root.AddCommand(newStartCmd(&dataDir))
	root.AddCommand(newStopCmd(&dataDir))
	root.AddCommand(newStatusCmd(&dataDir))
	root.AddCommand(newInstallCmd(&dataDir))
	root.AddCommand(newSitesCmd(&dataDir))
	root.AddCommand(newRulesCmd(&dataDir))
	root.AddCommand(newDaemonCmd(&dataDir))
	return root
}

func loadApp(ctx context.Context, dataDir string) (*bootstrap.App, error) {
	cfg, err := config.New(dataDir)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg)
}

// withApp opens the app for the lifetime of one command.
func withApp(dataDir string, run func(context.Context, *bootstrap.App) error) error {
	ctx := context.Background()
	app, err := loadApp(ctx, dataDir)
	if err != nil {
		return err
	}
	defer app.Close()
	return run(ctx, app)
}

func newStartCmd(dataDir *string) *cobra.Command {
	var minutes int
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a focus session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.Start(ctx, minutes)
				if err != nil {
					return err
				}
				printSession(cmd, out)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&minutes, "duration", 0, "session length in minutes (0 uses the configured default)")
	return cmd
}

func newStopCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "End the focus session and lift every block",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.Stop(ctx)
				if err != nil {
					return err
				}
				printSession(cmd, out)
				return nil
			})
		},
	}
}

func newStatusCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a focus session is running",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.Status(ctx)
				if err != nil {
					return err
				}
				printSession(cmd, out)
				return nil
			})
		},
	}
}

func newInstallCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Run the recovery sweep that drops rules left without a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.Install(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session_active=%t rules_removed=%d local=%t\n", out.TimerActive, out.RulesRemoved, out.Local)
				return nil
			})
		},
	}
}

func newSitesCmd(dataDir *string) *cobra.Command {
	sites := &cobra.Command{Use: "sites", Short: "Manage the blocked site list"}

	sites.AddCommand(&cobra.Command{
		Use:   "add <site>",
		Short: "Add a site to the block list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SitesCLI.Add(ctx, args[0])
				if err != nil {
					return err
				}
				if !out.Changed {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "already blocked: %s\n", out.Domain)
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added: %s\n", out.Domain)
				return nil
			})
		},
	})
	sites.AddCommand(&cobra.Command{
		Use:   "remove <site>",
		Short: "Remove a site from the block list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SitesCLI.Remove(ctx, args[0])
				if err != nil {
					return err
				}
				if !out.Changed {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "not in list: %s\n", out.Domain)
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed: %s\n", out.Domain)
				return nil
			})
		},
	})
	sites.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List blocked sites in order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				items, err := app.SitesCLI.List(ctx)
				if err != nil {
					return err
				}
				for _, s := range items {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", s.Position, s.Domain, s.AddedAt.Format(time.RFC3339))
				}
				return nil
			})
		},
	})
	return sites
}

func newRulesCmd(dataDir *string) *cobra.Command {
	rules := &cobra.Command{Use: "rules", Short: "Inspect installed blocking rules"}

	rules.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List installed blocking rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				items, err := app.RulesCLI.List(ctx)
				if err != nil {
					return err
				}
				for _, r := range items {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\taction=%s types=%s priority=%d\n", r.ID, r.Domain, r.Action, strings.Join(r.ResourceTypes, ","), r.Priority)
				}
				return nil
			})
		},
	})
	rules.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every installed blocking rule while no session runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.ClearRules(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed=%d local=%t\n", out.RulesRemoved, out.Local)
				return nil
			})
		},
	})
	return rules
}

func newDaemonCmd(dataDir *string) *cobra.Command {
	daemon := &cobra.Command{Use: "daemon", Short: "Manage the focus daemon lifecycle"}

	daemon.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the focus daemon in foreground",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			app, err := loadApp(ctx, *dataDir)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.SessionCLI.RunDaemon(ctx)
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the focus daemon in background",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.SessionCLI.StartDaemon(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon started")
				return nil
			})
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the focus daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.SessionCLI.StopDaemon(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon stopped")
				return nil
			})
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show focus daemon status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				status, err := app.SessionCLI.DaemonStatus(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "running=%t pid=%d socket=%s\n", status.Running, status.PID, status.SocketPath)
				if status.Session != nil {
					printSession(cmd, *status.Session)
				}
				return nil
			})
		},
	})
	var daemonLogTail int
	daemonLogs := &cobra.Command{
		Use:   "logs",
		Short: "Show focus daemon logs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				payload, err := app.SessionCLI.DaemonLogs(ctx, daemonLogTail)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), payload)
				return nil
			})
		},
	}
	daemonLogs.Flags().IntVar(&daemonLogTail, "tail", 200, "log lines to show from the end")
	daemon.AddCommand(daemonLogs)
	return daemon
}

func printSession(cmd *cobra.Command, out sessiondto.SessionOutput) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "status=%q active=%t", out.Status, out.Active)
	if out.ScheduledAt != nil {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), " ends=%s remaining=%s", out.ScheduledAt.Local().Format(time.Kitchen), time.Duration(out.RemainingSeconds)*time.Second)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout())
}
