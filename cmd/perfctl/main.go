// Command perfctl seeds synthetic candidate data and computes performance
// summaries against the configured store.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/talentscore/pkg/logger"
)

func main() {
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd(openStore).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
