package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rso-client/config"
	"rso-client/discovery"
	"rso-client/game"
	"rso-client/grpc"
	"rso-client/nats"
	"rso-client/server"
	"rso-client/session"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

func main() {
	conf := config.Init()
	setupLogging(conf)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clientID := uuid.New().String()
	err := run(ctx, conf, clientID)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).WithField("client", clientID).Error("Client stopped")
		stop()
		os.Exit(1)
	}
}

func setupLogging(conf config.Config) {
	if conf.LogJSON {
		log.SetFormatter(&log.JSONFormatter{})
	}

	level, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		log.WithError(err).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func run(ctx context.Context, conf config.Config, clientID string) error {
	if conf.ReplaySession != "" {
		return replay(ctx, conf)
	}

	name := conf.PlayerName
	if name == "" && len(os.Args) > 1 {
		name = os.Args[1]
	}
	if err := game.ValidateName(name); err != nil {
		return err
	}

	if conf.LocalAuthority {
		if err := startLocalAuthority(ctx, &conf); err != nil {
			return err
		}
	}

	if conf.HealthAddr != "" {
		if err := grpc.CheckAuthority(ctx, conf.HealthAddr, grpc.ServiceName); err != nil {
			return err
		}
	}

	dialer, err := session.NewDialer(conf.Transport, conf.ServerAddr(), conf.WSPath)
	if err != nil {
		return err
	}

	opts := session.Options{
		Dialer:           dialer,
		IOTimeout:        conf.IOTimeout,
		DiscoveryTimeout: conf.DiscoveryTimeout,
	}
	if l, err := discovery.Listen(conf.DiscoveryGroup, conf.DiscoveryPort); err != nil {
		log.WithError(err).Warn("Discovery channel unavailable")
	} else {
		opts.Announcements = l
	}

	client := session.New(opts)
	defer client.Disconnect()

	id, err := client.Connect(ctx, name)
	if err != nil {
		return err
	}

	events := nats.Connect(conf.NatsURL)
	defer events.Close()
	events.PublishEvent(nats.SubjectJoined, nats.SessionEvent{ClientID: clientID, SessionID: id, Name: name})

	loopOpts := game.LoopOptions{
		Input:         game.FixedInput{X: conf.CursorX, Y: conf.CursorY},
		Renderer:      &game.LogRenderer{Every: uint64(conf.TickRate)},
		TickInterval:  conf.TickInterval(),
		DecodeRetries: conf.DecodeRetries,
	}
	if conf.Wander {
		loopOpts.Input = game.NewWanderInput(game.WorldWidth, game.WorldHeight, conf.TickRate, uint64(time.Now().UnixNano()))
	}
	if conf.ReplayRedisURL != "" {
		recorder := game.NewRedisRecorder(ctx, conf.ReplayRedisURL, clientID)
		defer recorder.Close()
		loopOpts.Recorder = recorder
		log.WithField("key", recorder.Key()).Info("Recording session")
	}

	loop := game.NewLoop(client, id, loopOpts)
	err = loop.Run(ctx)

	reason := "quit"
	if err != nil && !errors.Is(err, context.Canceled) {
		reason = err.Error()
	}
	events.PublishEvent(nats.SubjectLeft, nats.SessionEvent{
		ClientID:  clientID,
		SessionID: id,
		Name:      name,
		Ticks:     loop.Ticks(),
		Reason:    reason,
	})

	return err
}

// replay renders a previously recorded session instead of connecting.
func replay(ctx context.Context, conf config.Config) error {
	if conf.ReplayRedisURL == "" {
		return errors.New("GAME_REPLAY_SESSION needs GAME_REPLAY_REDIS_URL")
	}

	recorder := game.NewRedisRecorder(ctx, conf.ReplayRedisURL, conf.ReplaySession)
	defer recorder.Close()

	entries, err := recorder.Load(ctx)
	if err != nil {
		return err
	}
	log.WithField("key", recorder.Key()).Info("Replaying ", len(entries), " recorded ticks")

	shown, err := game.Replay(ctx, entries, &game.LogRenderer{Every: uint64(conf.TickRate)}, conf.TickInterval())
	log.WithField("frames", shown).Info("Replay finished")
	return err
}

// startLocalAuthority serves a loopback world and points conf at it.
func startLocalAuthority(ctx context.Context, conf *config.Config) error {
	authority := server.NewAuthority(server.NumOrbs, uint64(time.Now().UnixNano()))

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}

	switch conf.Transport {
	case "ws":
		mux := http.NewServeMux()
		mux.Handle(conf.WSPath, authority.WebSocketHandler())
		srv := &http.Server{Handler: mux}
		context.AfterFunc(ctx, func() { srv.Close() })
		go srv.Serve(lis)
	default:
		go authority.ServeTCP(ctx, lis)
	}

	conf.ServerHost = "127.0.0.1"
	conf.ServerPort = lis.Addr().(*net.TCPAddr).Port
	log.Info("Local authority listening on ", conf.ServerAddr())

	return nil
}
