package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/logtally/authtab/cmd"
	"github.com/logtally/authtab/internal/health"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args, health.NewHealth(), nil); err != nil {
		log.Fatalln("fatal:", err)
	}
}
