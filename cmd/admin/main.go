package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/admin"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewJSONLogger(os.Stderr, "warn")

	comp, err := server.Wire(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	code := admin.NewApp(comp.Auth, os.Stdout).Run(ctx, os.Args[1:])

	if err := comp.Close(); err != nil {
		log.Printf("%v", err)
	}
	os.Exit(code)

}
