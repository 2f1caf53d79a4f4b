package main

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const appID = "beerstock"

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	if err := newApp().Run(os.Args); err != nil {
		log.WithError(err).Fatal("beerstock failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  appID,
		Usage: "beer stock inventory service",
		Commands: []*cli.Command{
			{
				Name:   "service",
				Usage:  "run the HTTP and gRPC servers",
				Action: runService,
			},
			{
				Name:  "migrate",
				Usage: "apply database migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "down", Usage: "roll back the last migration"},
				},
				Action: runMigrate,
			},
			{
				Name:  "export",
				Usage: "write the stored beers to a catalogue file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Value: "beers.json", Usage: "catalogue file to write"},
				},
				Action: runExport,
			},
		},
	}
}

func getKillSignalChan() chan os.Signal {
	osKillSignalChan := make(chan os.Signal, 1)
	signal.Notify(osKillSignalChan, os.Interrupt, syscall.SIGTERM)
	return osKillSignalChan
}

func logKillSignal(killSignal os.Signal) {
	switch killSignal {
	case os.Interrupt:
		log.Info("Got SIGINT...")
	case syscall.SIGTERM:
		log.Info("Got SIGTERM...")
	}
}
