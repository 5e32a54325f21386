package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/wetkeyorg/libwetkey-go/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "wetkey:", err)
		os.Exit(1)
	}
}
