package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/bcroc/teamchat/internal/call"
	"github.com/bcroc/teamchat/internal/config"
	"github.com/bcroc/teamchat/internal/core"
	"github.com/bcroc/teamchat/internal/eventbus"
	"github.com/bcroc/teamchat/internal/media"
)

func main() {
	app := &cli.App{
		Name:        "teamchat-call",
		Usage:       "Headless call client",
		Description: "Joins a channel or DM call with synthetic media, for load tests and call recording bots",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "env",
				Usage:    "environment: either 'development' or 'production'",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "user",
				Usage:    "user ID to join as",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "display name",
				Value: "bot",
			},
			&cli.StringFlag{
				Name:  "signal-url",
				Usage: "websocket URL of the signaling relay",
				Value: "ws://localhost:8080/ws",
			},
			&cli.StringFlag{
				Name:  "sessions-url",
				Usage: "base URL of the session service",
				Value: "http://localhost:8081",
			},
			&cli.StringFlag{
				Name:  "channel",
				Usage: "channel ID to start or join a call in",
			},
			&cli.StringFlag{
				Name:  "dm-thread",
				Usage: "DM thread ID to start or join a call in",
			},
			&cli.StringFlag{
				Name:  "video-file",
				Usage: "IVF (VP8) file looped as the camera source",
			},
			&cli.BoolFlag{
				Name:  "video",
				Usage: "join with camera enabled",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a yaml config file",
			},
		},
		Action: startCall,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("")
	}
}

func startCall(c *cli.Context) error {
	initLogger(core.Environment(c.String("env")))

	conf, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	webrtcConf, err := config.NewWebRTCConfig(conf)
	if err != nil {
		return err
	}

	userID := core.UserID(c.String("user"))
	displayName := c.String("name")

	scope := core.CallScope{}
	switch {
	case c.String("channel") != "":
		scope.Type = core.ChannelScope
		scope.ChannelID = c.String("channel")
	case c.String("dm-thread") != "":
		scope.Type = core.DMThreadScope
		scope.DMThreadID = c.String("dm-thread")
	default:
		return core.ErrInvalidScope
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalURL := c.String("signal-url") + "?uuid=" + string(userID) + "&name=" + displayName
	transport, err := eventbus.DialWS(ctx, signalURL)
	if err != nil {
		return err
	}
	defer transport.Close()

	sessionsClient, err := call.NewHTTPSessionService(c.String("sessions-url"), userID, displayName)
	if err != nil {
		return err
	}

	fallback := make([]webrtc.ICEServer, 0, len(conf.ICEServers))
	for _, s := range conf.ICEServers {
		fallback = append(fallback, s.WebRTC())
	}

	engine, err := call.NewEngine(call.Options{
		LocalUserID: userID,
		DisplayName: displayName,
		Devices: &media.Devices{
			CameraFile: c.String("video-file"),
		},
		Signal:             transport,
		Sessions:           sessionsClient,
		WebRTC:             webrtcConf,
		FallbackICEServers: fallback,
	})
	if err != nil {
		return err
	}

	engine.SetOnStateChange(func(state call.State) {
		log.Info().Str("service", "call").Str("state", string(state)).Msg("call state changed")
	})

	router := eventbus.NewRouter(transport)
	engine.Bind(router)
	started := router.Start()
	defer router.Stop()
	<-started

	if err := engine.StartCall(ctx, scope, c.Bool("video")); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Str("service", "call").Msg("leaving call")
	return engine.LeaveCall()
}

func initLogger(env core.Environment) {
	cw := zerolog.NewConsoleWriter()
	log.Logger = log.Output(cw)

	level := zerolog.InfoLevel
	if env.IsDevelopment() {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}
