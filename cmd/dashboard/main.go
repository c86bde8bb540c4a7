// Command dashboard is the terminal client for the purchase approvals
// service: it logs in, keeps a synchronized view of approvals and agent
// activity, and dispatches user actions.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pesio-ai/be-purchase-approvals/internal/client"
	"github.com/pesio-ai/be-purchase-approvals/internal/config"
	"github.com/pesio-ai/be-purchase-approvals/internal/dispatch"
	"github.com/pesio-ai/be-purchase-approvals/internal/session"
	"github.com/pesio-ai/be-purchase-approvals/internal/syncer"
)

var (
	flagConfig    string
	flagServer    string
	flagUsername  string
	flagPassword  string
	flagAgentOnly bool
)

func main() {
	root := &cobra.Command{
		Use:          "dashboard",
		Short:        "Purchase approvals dashboard",
		Long:         "Terminal dashboard for the purchase approvals service: watch the approval list, create requests, approve them, and run the SLA agent.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "approvals service URL (overrides config)")
	root.PersistentFlags().StringVar(&flagUsername, "username", "", "login username")
	root.PersistentFlags().StringVar(&flagPassword, "password", "", "login password")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the approval list and agent activity",
		RunE:  runWatch,
	}
	watchCmd.Flags().BoolVar(&flagAgentOnly, "agent-only", false, "show only agent-authored activity")

	root.AddCommand(
		watchCmd,
		&cobra.Command{
			Use:   "create",
			Short: "Create a new purchase approval as yourself",
			RunE:  runCreate,
		},
		&cobra.Command{
			Use:   "approve <approval-id>",
			Short: "Approve a pending approval",
			Args:  cobra.ExactArgs(1),
			RunE:  runApprove,
		},
		&cobra.Command{
			Use:   "agent",
			Short: "Run one agent evaluation pass",
			RunE:  runAgent,
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app wires the dashboard core for one invocation.
type app struct {
	cfg        *config.Config
	log        zerolog.Logger
	sessions   *session.Manager
	engine     *syncer.Engine
	dispatcher *dispatch.Dispatcher
}

func newApp() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagServer != "" {
		cfg.Dashboard.ServerURL = flagServer
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()

	api := client.NewApprovalsClient(cfg.Dashboard.ServerURL)
	sessions := session.NewManager()
	engine := syncer.New(api, cfg.Dashboard.PollInterval, log)
	dispatcher := dispatch.New(api, sessions, engine, log)

	return &app{
		cfg:        cfg,
		log:        log,
		sessions:   sessions,
		engine:     engine,
		dispatcher: dispatcher,
	}, nil
}

func (a *app) login(ctx context.Context) (*session.Session, error) {
	if flagUsername == "" || flagPassword == "" {
		return nil, fmt.Errorf("--username and --password are required")
	}
	return a.dispatcher.Login(ctx, flagUsername, flagPassword)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a.engine.OnUpdate(func(snap syncer.Snapshot) {
		render(os.Stdout, a.sessions.Current(), snap, flagAgentOnly)
	})

	sess, err := a.login(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s), polling every %s. Ctrl-C to exit.\n",
		sess.Username, sess.Role, a.cfg.Dashboard.PollInterval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.dispatcher.Logout()
	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if _, err := a.login(ctx); err != nil {
		return err
	}
	defer a.dispatcher.Logout()

	approval, err := a.dispatcher.CreateApproval(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Created approval %s: %s $%.2f (SLA %gh)\n",
		approval.ID, approval.VendorName, approval.Amount, approval.SLAHours)
	return nil
}

func runApprove(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if _, err := a.login(ctx); err != nil {
		return err
	}
	defer a.dispatcher.Logout()

	approval, err := a.dispatcher.Approve(ctx, args[0], a.engine.Snapshot().Approvals)
	if err != nil {
		return err
	}

	fmt.Printf("Approved %s (%s)\n", approval.ID, approval.VendorName)
	return nil
}

func runAgent(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if _, err := a.login(ctx); err != nil {
		return err
	}
	defer a.dispatcher.Logout()

	actions, err := a.dispatcher.InvokeAgent(ctx)
	if err != nil {
		return err
	}

	if len(actions) == 0 {
		fmt.Println("Agent pass complete: no action needed")
		return nil
	}
	for _, action := range actions {
		fmt.Printf("%s: %s\n", action.Action, action.ApprovalID)
	}
	return nil
}
