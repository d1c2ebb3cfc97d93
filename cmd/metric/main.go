// Command metric computes one metric for one player season and prints it.
//
//	metric -metric woba -player "Mike Trout" -season 2016
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/fortuna/sabermetrics/internal/app"
	"github.com/fortuna/sabermetrics/internal/config"
	"github.com/fortuna/sabermetrics/internal/service"
	"github.com/fortuna/sabermetrics/pkg/logger"
)

func main() {
	metric := flag.String("metric", service.KeyWOBA, "metric to compute: woba, fip, xfip, siera")
	player := flag.String("player", "", "player name as listed on ESPN")
	season := flag.String("season", "", "four-digit season")
	fipSource := flag.String("fip-constant", "", "override cFIP source: league or published")
	flag.Parse()

	os.Exit(run(*metric, *player, *season, *fipSource))
}

func run(metric, player, season, fipSource string) int {
	if err := logger.InitWriter(os.Stderr); err != nil {
		return 1
	}
	log := logger.Named("metric")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if fipSource != "" {
		cfg.FIPConstantSource = fipSource
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
	}

	a, err := app.New(ctx, cfg, log, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer a.Close()

	res, err := a.Service.Compute(ctx, metric, player, season)
	if err != nil {
		fmt.Println(service.Message(err))
		return 1
	}
	fmt.Println(res.Formatted)
	return 0
}
