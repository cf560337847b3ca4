package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/streamkeeper/internal/client/cli"
	"github.com/dmitrijs2005/streamkeeper/internal/client/config"
	"github.com/dmitrijs2005/streamkeeper/internal/flagx"
)

// configFlags are the value flags read by config.LoadConfig; anything else
// on the command line is the subcommand and its arguments.
var configFlags = []string{"-s", "-a", "-k", "-token", "-d", "-t", "-c", "-config"}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	code := app.Run(ctx, flagx.Positional(os.Args[1:], configFlags))
	stop()
	os.Exit(code)
}
