// Command ragcore indexes local documents and serves vector, keyword and
// entity graph search over them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragcore/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cli.SetBuilder(bootstrap.Build)

	err := cli.Execute(ctx)
	stop()
	os.Exit(cli.ExitCode(err))
}
