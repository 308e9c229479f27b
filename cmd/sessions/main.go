package main

import (
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "github.com/jackc/pgx/v4/stdlib"

	"github.com/bcroc/teamchat/internal/config"
	"github.com/bcroc/teamchat/internal/core"
	"github.com/bcroc/teamchat/internal/sessions"
)

func main() {
	app := &cli.App{
		Name:        "teamchat-sessions",
		Usage:       "Call session service",
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
		Action: startSessions,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("")
	}
}

func startSessions(c *cli.Context) error {
	conf, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	db, err := sqlx.Connect("pgx", conf.DB.DSN)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		return err
	}

	iceServers := make([]webrtc.ICEServer, 0, len(conf.ICEServers))
	for _, s := range conf.ICEServers {
		iceServers = append(iceServers, s.WebRTC())
	}

	app := sessions.NewApp(sessions.AppOptions{
		Env:        core.Environment(c.String("env")),
		Address:    c.String("address"),
		DB:         db,
		ICEServers: iceServers,
	})

	return app.Start()
}
