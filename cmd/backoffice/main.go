package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/common-nighthawk/go-figure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/kaiwenyao/firmament-backoffice/alert"
	"github.com/kaiwenyao/firmament-backoffice/api"
	"github.com/kaiwenyao/firmament-backoffice/backoffice"
	"github.com/kaiwenyao/firmament-backoffice/internal/config"
	"github.com/kaiwenyao/firmament-backoffice/internal/metrics"
	"github.com/kaiwenyao/firmament-backoffice/notify"
	"github.com/kaiwenyao/firmament-backoffice/session"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error running backoffice client: %s\n", err)
	}
	log.Printf("Backoffice client stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())
	logger := newLogger(c.GetLogLevel())

	store, err := session.NewFileStore(filepath.Join(c.GetDataFolder(), "session.json"))
	if err != nil {
		return err
	}
	sess, err := session.NewManager(store)
	if err != nil {
		return err
	}
	clientID, err := sess.ClientID()
	if err != nil {
		return err
	}
	logger.Info().Str("clientId", clientID).Msg("session identity ready")

	instruments := metrics.New(prometheus.NewRegistry())

	pipeline, err := api.NewClient(c.GetAPIBaseURL(), sess,
		api.WithLogger(logger),
		api.WithTimeout(c.GetRequestTimeout()),
		api.WithMetrics(instruments),
		api.WithSessionExpiredHandler(func() {
			logger.Warn().Msg("session expired, please log in again")
		}),
	)
	if err != nil {
		return err
	}
	office, err := backoffice.NewClient(pipeline)
	if err != nil {
		return err
	}
	logShopStatus(logger, office)

	dispatcher, err := alert.NewDispatcher(
		&logNotifier{log: logger},
		newChimePlayer(logger),
		alert.WithLogger(logger),
		alert.WithMetrics(instruments),
	)
	if err != nil {
		return err
	}

	manager, err := notify.NewManager(c.GetPushBaseURL(), clientID, notify.ListenerFuncs{
		Open:    func() { logger.Info().Msg("order notifications connected") },
		Message: dispatcher.HandleMessage,
		Closed:  func(code websocket.StatusCode) { logger.Info().Int("code", int(code)).Msg("order notifications closed") },
		Error:   func(err error) { logger.Warn().Err(err).Msg("order notification channel error") },
	},
		notify.WithLogger(logger),
		notify.WithMetrics(instruments),
	)
	if err != nil {
		return err
	}
	manager.Connect()
	defer manager.Close()

	waitForStopSignal()
	return nil
}

func logShopStatus(logger zerolog.Logger, office *backoffice.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, err := office.ShopStatus(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("could not fetch shop status")
		return
	}
	logger.Info().Int("status", status).Msg("shop status")
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
}
