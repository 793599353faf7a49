package main

import (
	"net/http"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/coinfold/mixer/address"
	"github.com/coinfold/mixer/api"
	"github.com/coinfold/mixer/gateway/jobcoin"
	"github.com/coinfold/mixer/mixer"
	"github.com/coinfold/mixer/store/memstore"
)

type config struct {
	Listen      string        `long:"listen" description:"HTTP listen address" default:":8111"`
	GatewayURL  string        `long:"gateway-url" description:"Jobcoin payment API base URL" default:"http://jobcoin.gemini.com/cultivate-duvet"`
	MinParts    int           `long:"minparts" description:"Lower bound on the random fragment count" default:"3"`
	MaxParts    int           `long:"maxparts" description:"Exclusive upper bound on the random fragment count" default:"10"`
	MinInterval time.Duration `long:"mininterval" description:"Lower bound on the random payout delay" default:"1s"`
	MaxInterval time.Duration `long:"maxinterval" description:"Exclusive upper bound on the random payout delay" default:"20s"`
	Workers     int           `long:"workers" description:"Concurrent payout attempts" default:"2"`
}

func main() {
	var cfg config
	if _, err := flags.Parse(&cfg); err != nil {
		os.Exit(1)
	}

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	registry := memstore.NewDepositRegistry()
	statuses := memstore.NewRequestStatusStore()
	gateway := jobcoin.NewClient(cfg.GatewayURL)

	engine, err := mixer.NewEngine(mixer.Config{
		MinParts:       cfg.MinParts,
		MaxParts:       cfg.MaxParts,
		MinInterval:    cfg.MinInterval,
		MaxInterval:    cfg.MaxInterval,
		WorkerPoolSize: cfg.Workers,
	}, registry, statuses, gateway, log)
	if err != nil {
		log.Fatal().Err(err).Msg("configure mixing engine")
	}
	engine.Start()
	defer engine.Stop()

	server := api.NewServer(engine, registry, gateway, address.NewGenerator(), log)

	log.Info().Str("listen", cfg.Listen).Msg("jobcoin mixer is up")
	if err := http.ListenAndServe(cfg.Listen, server.Handler()); err != nil {
		log.Fatal().Err(err).Msg("http server")
	}
}
