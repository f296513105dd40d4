package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bhv-platform/bhv-go/internal/cmd"
)

func main() {
	if err := cmd.RootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
