package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"usermanager/internal/cli"

	"github.com/charmbracelet/lipgloss"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		styles := cli.NewStyles(lipgloss.NewRenderer(os.Stderr))
		fmt.Fprintln(os.Stderr, cli.FormatError(styles, err))
		stop()
		os.Exit(1)
	}
}
