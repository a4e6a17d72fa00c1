package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/config"
	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	srv := server.New(config.Load())

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.Printf("received signal %v, shutting down", sig)
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}

	srv.Shutdown()
}
