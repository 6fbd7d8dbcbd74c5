package main

import (
	"context"
	"log"

	"png_compression/config"
	"png_compression/internal/server"

	_ "png_compression/cmd/server/docs"
)

// @title           PNG compression webhook
// @version         1.0
// @description     Compresses a remote PNG with oxipng and serves the result from a short-lived link.

// @BasePath  /

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

func main() {
	// Configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	// Run
	if err := server.NewServer().Run(context.Background(), cfg); err != nil {
		log.Fatalf("Server error: %s", err)
	}
}
