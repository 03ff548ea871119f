package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags override the environment
	port := flag.String("port", cfg.Server.Port, "Server port")
	host := flag.String("host", cfg.Server.Host, "Server host")
	networks := flag.String("networks", cfg.Networks.File, "Network catalog file (yaml, toml or json)")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging, skips analytics identification")
	noReputation := flag.Bool("no-reputation", !cfg.Reputation.Enabled, "Disable the scam list check")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Server.Host = *host
	cfg.Networks.File = *networks
	cfg.Logging.Development = *dev
	cfg.Reputation.Enabled = !*noReputation

	log.Println("WalletShell - session request pipeline")

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		_ = srv.Close()
		log.Fatalf("Server error: %v", err)
	}
}
