package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/sitekeeper/internal/server"
	"github.com/dmitrijs2005/sitekeeper/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	runErr := app.Run(ctx)
	if err := app.Close(); err != nil {
		log.Printf("close: %v", err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
