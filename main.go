package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/Mahendra2603/Robot-Simulator-Project/app"
	"github.com/Mahendra2603/Robot-Simulator-Project/config"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	// Run blocks until SIGINT or SIGTERM, then stops the API, the peer
	// endpoint and the hub in that order.
	app.New(cfg).Run()
}
