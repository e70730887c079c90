package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"
	"golang.org/x/sync/errgroup"

	"github.com/aaquinonez01/whatsapp-service/internal/auth"
	"github.com/aaquinonez01/whatsapp-service/internal/event"
	"github.com/aaquinonez01/whatsapp-service/internal/infra/config"
	"github.com/aaquinonez01/whatsapp-service/internal/notify"
	"github.com/aaquinonez01/whatsapp-service/internal/send"
	"github.com/aaquinonez01/whatsapp-service/internal/server"
	"github.com/aaquinonez01/whatsapp-service/internal/state"
	"github.com/aaquinonez01/whatsapp-service/internal/store"
)

// App is the main application orchestrator.
type App struct {
	Config     *config.Config
	Log        waLog.Logger
	Store      *store.Store
	Client     *Client
	Tracker    *state.Tracker
	Dispatcher *event.Dispatcher
	States     *event.StateHandler
	Pairer     *auth.Pairer
	Sender     *send.Service
	Server     *server.Server
	Notifier   *notify.Notifier

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new App instance. Nothing is bound or connected until Run.
func New(cfg *config.Config, log waLog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Infof("Initializing WhatsApp service...")

	ctx, cancel := context.WithCancel(context.Background())

	appStore, err := store.Open(ctx, cfg, log)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	device, err := appStore.GetDevice(ctx)
	if err != nil {
		cancel()
		appStore.Close()
		return nil, err
	}
	client := NewClient(device, log)

	tracker := state.NewTracker()
	dispatcher := event.NewDispatcher(log)
	states := event.NewStateHandler(tracker, cfg.AuthRetryDelay, log)
	pairer := auth.NewPairer(ctx, cfg, client.Underlying(), dispatcher, log)
	sender := send.NewService(client.Underlying(), log)

	app := &App{
		Config:     cfg,
		Log:        log,
		Store:      appStore,
		Client:     client,
		Tracker:    tracker,
		Dispatcher: dispatcher,
		States:     states,
		Pairer:     pairer,
		Sender:     sender,
		Server:     server.New(tracker, sender, cfg.MetricsEnabled, log),
		ctx:        ctx,
		cancel:     cancel,
	}

	if cfg.Redis.URL != "" {
		notifier, err := notify.Dial(ctx, cfg.Redis.URL, cfg.Redis.Channel, tracker, log)
		if err != nil {
			app.Shutdown()
			return nil, fmt.Errorf("failed to connect status publisher: %w", err)
		}
		app.Notifier = notifier
	}

	dispatcher.Register(states)
	dispatcher.Register(pairer)
	states.SetRetryHook(app.reconnect)
	client.AddEventHandler(dispatcher.Handle)

	return app, nil
}

// Run serves HTTP and keeps the WhatsApp connection until SIGINT/SIGTERM.
func (a *App) Run() error {
	a.Log.Infof("Starting WhatsApp service...")

	ctx, stop := signal.NotifyContext(a.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              a.Config.ListenAddr(),
		Handler:           a.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		a.Log.Infof("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		a.Log.Infof("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		return a.Server.WatchStatus(ctx)
	})
	if a.Notifier != nil {
		group.Go(func() error {
			return a.Notifier.Run(ctx)
		})
	}
	group.Go(func() error {
		if err := a.Client.Connect(); err != nil {
			a.Dispatcher.EmitError(err.Error())
			a.Log.Errorf("%v", err)
		}
		return nil
	})

	err := group.Wait()
	if shutdownErr := a.Shutdown(); err == nil {
		err = shutdownErr
	}
	return err
}

// reconnect is the single follow-up attempt after an auth failure.
func (a *App) reconnect() {
	if a.ctx.Err() != nil || a.Client.WAClient.IsConnected() {
		return
	}
	a.Log.Infof("Reconnecting after auth failure...")
	if err := a.Client.Reconnect(); err != nil {
		a.Log.Errorf("Reconnect failed: %v", err)
		a.Dispatcher.EmitError(err.Error())
	}
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.cancel()
	a.States.Stop()
	a.Client.Disconnect()

	var errs []error
	if a.Notifier != nil {
		errs = append(errs, a.Notifier.Close())
	}
	errs = append(errs, a.Store.Close())
	return errors.Join(errs...)
}
