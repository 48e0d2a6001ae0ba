package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rpattn/reportimport/internal/cli"

	"github.com/sirupsen/logrus"
)

func main() {
	// Interrupting the run rolls the batch back instead of committing it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.NewApp(os.Stderr).Run(ctx, os.Args[1:])
	stop()

	if err != nil {
		logrus.SetOutput(os.Stderr)
		logrus.WithError(err).Error("import failed")
		os.Exit(cli.ExitCode(err))
	}
}
