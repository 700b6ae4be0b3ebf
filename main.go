package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

// envOrString returns the environment variable value if set, otherwise returns the default value.
func envOrString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <authenticate|collect> [flags]\n", os.Args[0])
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	command := os.Args[1]

	flags := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := flags.String("config", envOrString("CARUNA_CONFIG", "collector.yaml"), "Collector settings file")
	secretsPath := flags.String("secrets", envOrString("CARUNA_SECRETS", ".secrets.txt"), "Secrets file")
	outCSV := flags.String("out", "", "Override the output dataset path")
	cacheDir := flags.String("cache", "", "Override the HTTP cache directory ('disable' to disable)")
	flags.Parse(os.Args[2:])

	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if *outCSV != "" {
		config.OutputCSV = *outCSV
	}
	if *cacheDir != "" {
		config.CacheDir = *cacheDir
	}

	app, err := NewApp(config, *secretsPath)
	if err != nil {
		log.Fatalf("Application error: %v", err)
	}

	switch command {
	case "authenticate":
		err = app.Authenticate()
	case "collect":
		err = app.Run()
	default:
		usage()
	}
	if err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
