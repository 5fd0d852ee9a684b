// Package main is the entry point for the livetechno API server
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/livetechno/livetechno/pkg/api"
	"github.com/livetechno/livetechno/pkg/config"
)

func main() {
	configFile := pflag.StringP("config", "c", "", "Config file (default ./livetechno.yaml)")
	pflag.String("host", "127.0.0.1", "Listen host")
	pflag.IntP("port", "p", 8787, "Server port")
	pflag.String("data-dir", "data", "Directory for the saved project and activity log")
	pflag.String("static-dir", "", "Serve the studio front end from this directory")
	pflag.Parse()

	cfg, err := config.Load(*configFile, pflag.CommandLine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting livetechno API server on %s...\n", cfg.Addr())
	fmt.Printf("Swagger docs available at http://%s/swagger/index.html\n", cfg.Addr())

	if err := api.StartServer(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
