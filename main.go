package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rental-normalizer/commands"
	"rental-normalizer/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	app := commands.NewApp(config.Load())
	defer app.Close()

	return commands.NewRootCmd(app).ExecuteContext(ctx)
}
