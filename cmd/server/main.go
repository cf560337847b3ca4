// Command server runs the streamkeeper REST API and the ingest gRPC service.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/streamkeeper/internal/server"
	"github.com/dmitrijs2005/streamkeeper/internal/server/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.NewApp(ctx, config.LoadConfig())
	if err != nil {
		log.Fatalf("streamkeeper: %v", err)
	}

	app.Run(ctx)
}
