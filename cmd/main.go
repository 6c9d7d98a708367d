package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/operator-framework/fsplan/cmd/root"
)

func main() {
	// an interrupt cancels the search episode, which then reports a
	// timeout
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
