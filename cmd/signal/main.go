package main

import (
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/bcroc/teamchat/internal/config"
	"github.com/bcroc/teamchat/internal/core"
	"github.com/bcroc/teamchat/internal/eventbus"
	"github.com/bcroc/teamchat/internal/relay"
)

func main() {
	app := &cli.App{
		Name:        "teamchat-signal",
		Usage:       "Call signaling relay",
		Description: "",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "env",
				Usage:    "environment: either 'development' or 'production'",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "address",
				Usage: "listen IP and port, example: ':80' (default value) for listen on 0.0.0.0:80",
				Value: ":80",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a yaml config file",
			},
		},
		Action: startSignal,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("")
	}
}

func startSignal(c *cli.Context) error {
	conf, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: conf.Redis.Addr,
		DB:   conf.Redis.DB,
	})

	var (
		publisher  eventbus.Publisher
		subscriber eventbus.Subscriber
	)
	switch conf.Bus {
	case config.BusRedis:
		bus := eventbus.RedisPubSub(rdb)
		publisher, subscriber = bus, bus
	case config.BusNats:
		nc, err := nats.Connect(conf.Nats.URL)
		if err != nil {
			return err
		}
		bus := eventbus.NatsPubSub(nc)
		publisher, subscriber = bus, bus
	default:
		return fmt.Errorf("unknown bus backend: %q", conf.Bus)
	}

	relayApp := relay.NewApp(relay.AppOptions{
		Env:              core.Environment(c.String("env")),
		Address:          c.String("address"),
		EventsPublisher:  publisher,
		EventsSubscriber: subscriber,
		Rooms:            relay.NewRedisRooms(rdb),
	})

	return relayApp.Start()
}
