package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/weiihann/backfill-state-dashboard/cmd/backfill/commands"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	commands.Execute(ctx)
}
