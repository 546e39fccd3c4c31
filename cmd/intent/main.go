package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"intent/internal/bootstrap"
	sessiondto "intent/internal/modules/session/dto"
	"intent/internal/platform/config"
	apperrors "intent/internal/platform/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataPath string

	root := &cobra.Command{
		Use:           "intent",
		Short:         "Track intentional app usage and nudge away from compulsive sessions",
		Version:       bootstrap.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataPath, "data", defaultDataPath(), "data directory")

	root.AddCommand(newTUICmd(&dataPath))
	root.AddCommand(newWatchCmd(&dataPath))
	root.AddCommand(newSessionCmd(&dataPath))
	root.AddCommand(newEventCmd(&dataPath))
	root.AddCommand(newRiskCmd(&dataPath))
	root.AddCommand(newPingCmd(&dataPath))
	root.AddCommand(newCoachCmd(&dataPath))
	root.AddCommand(newExportCmd(&dataPath))
	root.AddCommand(newImportCmd(&dataPath))
	root.AddCommand(newDumpCmd(&dataPath))
	root.AddCommand(newResetCmd(&dataPath))
	root.AddCommand(newMigrateCmd(&dataPath))
	return root
}

func defaultDataPath() string {
	if v := os.Getenv("INTENT_DATA"); v != "" {
		return v
	}
	return "."
}

func loadApp(ctx context.Context, dataPath string) (*bootstrap.App, error) {
	cfg, err := config.Load(dataPath)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg)
}

// withApp runs fn against a freshly wired app. Expected state conflicts are
// printed as notices and do not fail the command; anything else is recorded
// as the last error before it is returned.
func withApp(cmd *cobra.Command, dataPath string, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := cmd.Context()
	app, err := loadApp(ctx, dataPath)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(context.Background()) }()

	err = fn(ctx, app)
	switch {
	case err == nil:
		return nil
	case apperrors.IsNotice(err):
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "notice:", err)
		return nil
	default:
		if cerr := app.Shield.Capture(context.Background(), cmd.CommandPath(), err); cerr != nil {
			app.Logger.Warn("record last error", "error", cerr)
		}
		return err
	}
}

func newTUICmd(dataPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the usage dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dataPath, func(ctx context.Context, app *bootstrap.App) error {
				return bootstrap.RunTUI(ctx, app)
			})
		},
	}
}

func newWatchCmd(dataPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the staleness sweep until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dataPath, func(ctx context.Context, app *bootstrap.App) error {
				app.Logger.Info("watching", "interval", app.Config.SweepInterval)
				return bootstrap.Watch(ctx, app, func(out sessiondto.SweepOutput) {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "closed %d stale session(s): %s\n",
						len(out.Finalized), strings.Join(out.Finalized, ", "))
				})
			})
		},
	}
}

func newSessionCmd(dataPath *string) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Session lifecycle"}

	var intent string
	var minutes int
	startCmd := &cobra.Command{
		Use:   "start [app]",
		Short: "Start a session, closing any previously active one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := ""
			if len(args) == 1 {
				app = args[0]
			}
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				out, err := a.SessionCLI.Start(ctx, app, intent, minutes)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "started %s on %s planned=%dm\n", out.SessionID, out.App, out.MinutesPlanned)
				if out.SupersededID != "" {
					_, _ = fmt.Fprintf(w, "closed previous session %s\n", out.SupersededID)
				}
				if out.CoachAdvised {
					_, _ = fmt.Fprintln(w, "tip: run `intent coach suggest` before you dive in")
				}
				return nil
			})
		},
	}
	startCmd.Flags().StringVar(&intent, "intent", "", "declared intent: purposeful|entertainment|unconscious")
	startCmd.Flags().IntVar(&minutes, "minutes", 0, "planned minutes (0 uses the app default)")

	reportCmd := &cobra.Command{
		Use:   "report <session-id> <minutes>",
		Short: "Report the minutes actually spent in a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("minutes must be an integer: %w", apperrors.ErrInvalidInput)
			}
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				out, err := a.SessionCLI.Report(ctx, args[0], n)
				if out.SessionID != "" {
					printSession(cmd.OutOrStdout(), out)
				}
				return err
			})
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Cancel the active session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				out, err := a.SessionCLI.Stop(ctx)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	activeCmd := &cobra.Command{
		Use:   "active",
		Short: "Show the active session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				out, err := a.SessionCLI.Active(ctx)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Close sessions left open past the staleness window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				out, err := a.SessionCLI.Sweep(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "closed=%d pointer_cleared=%t\n", len(out.Finalized), out.PointerCleared)
				for _, id := range out.Finalized {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", id)
				}
				return nil
			})
		},
	}

	session.AddCommand(startCmd, reportCmd, stopCmd, activeCmd, sweepCmd)
	return session
}

func printSession(w io.Writer, s sessiondto.SessionOutput) {
	state := "active"
	switch {
	case s.Cancelled:
		state = "cancelled"
	case s.StaleFinalized:
		state = "stale"
	case s.Finalized:
		state = "reported"
	}
	actual := "-"
	if s.MinutesActual != nil {
		actual = strconv.Itoa(*s.MinutesActual)
	}
	_, _ = fmt.Fprintf(w, "%s app=%s intent=%s state=%s planned=%d actual=%s started=%s\n",
		s.SessionID, s.App, orDash(s.Intent), state, s.MinutesPlanned, actual, s.StartedAt.Format(time.RFC3339))
}

func newEventCmd(dataPath *string) *cobra.Command {
	event := &cobra.Command{Use: "event", Short: "Raw event log access"}

	event.AddCommand(&cobra.Command{
		Use:   "append <json>",
		Short: "Normalize and append one event record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var record map[string]any
			if err := json.Unmarshal([]byte(args[0]), &record); err != nil {
				return fmt.Errorf("record must be a JSON object: %w", apperrors.ErrStructural)
			}
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				out, err := a.EventLogCLI.Append(ctx, record)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "appended %s kind=%s app=%s day=%s\n", out.ID, out.Kind, out.App, out.CalendarDay)
				return nil
			})
		},
	})

	var kind, app string
	var today bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				events, err := a.EventLogCLI.List(ctx, kind, app, today)
				if err != nil {
					return err
				}
				if len(events) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no events")
					return nil
				}
				for _, e := range events {
					detail := ""
					switch {
					case e.Minutes > 0:
						detail = fmt.Sprintf("minutes=%d", e.Minutes)
					case e.Choice != "":
						detail = "choice=" + e.Choice
					case e.Result != "":
						detail = fmt.Sprintf("action=%s result=%s", e.ActionKey, e.Result)
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %-8s %-10s %s\n",
						e.CalendarDay, e.ID, e.Kind, e.App, detail)
				}
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&kind, "kind", "", "filter by kind: allow|coach|outcome")
	listCmd.Flags().StringVar(&app, "app", "", "filter by app id")
	listCmd.Flags().BoolVar(&today, "today", false, "only today's events")

	event.AddCommand(listCmd)
	return event
}

func newRiskCmd(dataPath *string) *cobra.Command {
	risk := &cobra.Command{Use: "risk", Short: "Risk assessment and usage overview"}

	var debug bool
	assessCmd := &cobra.Command{
		Use:   "assess [app]",
		Short: "Score the risk of a compulsive session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := ""
			if len(args) == 1 {
				app = args[0]
			}
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				out, err := a.RiskCLI.Assess(ctx, app)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "score=%d tier=%s app=%s thresholds=%d/%d\n", out.Score, out.Tier, orDash(out.App), out.Orange, out.Red)
				for _, r := range out.Reasons {
					_, _ = fmt.Fprintf(w, "%+4d %s %s\n", r.Weight, r.Code, r.Detail)
				}
				if debug {
					d := out.Debug
					_, _ = fmt.Fprintf(w, "today=%d global=%d daily=%v avg7=%d week=%d trend=%s(%+.2f)\n",
						d.TotalToday, d.TotalGlobal, d.Daily, d.Average7, d.WeeklyProjection, d.Trend, d.TrendDelta)
					_, _ = fmt.Fprintf(w, "intents=%d purposeful=%d%% entertainment=%d%% unconscious=%d%% pressure=%d loop=%d/%t hour=%d\n",
						d.IntentTotal, d.PctPurposeful, d.PctEntertainment, d.PctUnconscious, d.Pressure, d.LoopCount15, d.InLoop, d.Hour)
				}
				return nil
			})
		},
	}
	assessCmd.Flags().BoolVar(&debug, "debug", false, "print the signal breakdown")

	overviewCmd := &cobra.Command{
		Use:   "overview",
		Short: "Per-app usage today and over the last 7 days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				out, err := a.RiskCLI.Overview(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "%s total=%dm state=%s\n", out.Day, out.TotalToday, out.State)
				for _, app := range out.Apps {
					_, _ = fmt.Fprintf(w, "%-10s %-6s today=%d avg7=%d week=%d trend=%s limits=%d/%d\n",
						app.App, app.State, app.Today, app.Average7, app.WeeklyProjection, app.Trend, app.Orange, app.Red)
				}
				return nil
			})
		},
	}

	risk.AddCommand(assessCmd, overviewCmd)
	return risk
}

func newPingCmd(dataPath *string) *cobra.Command {
	ping := &cobra.Command{
		Use:   "ping",
		Short: "Record an app open from an external trigger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				out, err := a.RiskCLI.Ping(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "pings=%d last15=%d loop=%t\n", out.Pings, out.Count15, out.InLoop)
				return nil
			})
		},
	}
	ping.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget recorded opens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				if err := a.RiskCLI.ResetPings(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "pings cleared")
				return nil
			})
		},
	})
	return ping
}

func newCoachCmd(dataPath *string) *cobra.Command {
	coach := &cobra.Command{Use: "coach", Short: "Coaching suggestions and feedback"}

	suggestCmd := &cobra.Command{
		Use:   "suggest [app]",
		Short: "Suggest an alternative action",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := ""
			if len(args) == 1 {
				app = args[0]
			}
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				out, err := a.CoachCLI.Suggest(ctx, app)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "%s (%s)\n", out.Action, out.FinalKey)
				_, _ = fmt.Fprintf(w, "risk=%d tier=%s base=%s traits=%s\n", out.RiskScore, out.RiskTier, out.BaseKey, orDash(strings.Join(out.Traits, ",")))
				return nil
			})
		},
	}

	var app string
	chooseCmd := &cobra.Command{
		Use:   "choose <primary|alt1|alt2|skip>",
		Short: "Record which suggestion you took",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				out, err := a.CoachCLI.Choose(ctx, args[0], app)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logged %s choice=%s\n", out.ID, out.Choice)
				return nil
			})
		},
	}
	chooseCmd.Flags().StringVar(&app, "app", "", "app the choice was made for")

	outcomeCmd := &cobra.Command{
		Use:   "outcome <done|partial|ignored>",
		Short: "Record how the last chosen action went",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				out, err := a.CoachCLI.Outcome(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logged %s result=%s\n", out.ID, out.Result)
				return nil
			})
		},
	}

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Show behavioral traits derived from past sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				out, err := a.CoachCLI.Profile(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "sessions=%d %s\n", out.Sessions, out.Summary)
				for _, t := range out.Traits {
					_, _ = fmt.Fprintf(w, "- %s %d%%\n", t.Label, t.Percent)
				}
				return nil
			})
		},
	}

	coach.AddCommand(suggestCmd, chooseCmd, outcomeCmd, profileCmd)
	return coach
}

func newExportCmd(dataPath *string) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the event log as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				out, err := a.TransferCLI.Export(ctx)
				if err != nil {
					return err
				}
				if outPath == "" || outPath == "-" {
					_, err = cmd.OutOrStdout().Write(append(out.Data, '\n'))
					return err
				}
				if err := os.WriteFile(outPath, out.Data, 0o600); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "exported %d events (schema v%d) to %s\n", out.Events, out.SchemaVersion, outPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCmd(dataPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the event log with an exported payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				out, err := a.TransferCLI.Import(ctx, data)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported=%d rejected=%d duplicates=%d truncated=%d\n",
					out.Imported, out.Rejected, out.Duplicates, out.Truncated)
				return nil
			})
		},
	}
}

func newDumpCmd(dataPath *string) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print storage diagnostics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				out, err := a.TransferCLI.Dump(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if raw {
					_, err = w.Write(append(out.Data, '\n'))
					return err
				}
				_, _ = fmt.Fprintf(w, "schema=v%d events=%d size=%.1fKB active=%s\n",
					out.SchemaVersion, out.Events, out.SizeKB, orDash(out.ActiveSessionID))
				if out.LastError != nil {
					_, _ = fmt.Fprintf(w, "last error %s [%s] %s\n", out.LastError.TS, out.LastError.Type, out.LastError.Message)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the full JSON dump")
	return cmd
}

func newResetCmd(dataPath *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase all stored data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("reset erases every event; pass --yes to confirm")
			}
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				if err := a.TransferCLI.Reset(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "storage cleared")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newMigrateCmd(dataPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending event log schema steps",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dataPath, func(ctx context.Context, a *bootstrap.App) error {
				out, err := a.EventLogCLI.Migrate(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "schema v%d -> v%d rewrites=%d\n", out.From, out.To, out.Rewrites)
				return nil
			})
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
