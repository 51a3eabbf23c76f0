package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"mathtutor/internal/cli/command"
	"mathtutor/internal/cli/config"
	"mathtutor/internal/cli/http"
	"mathtutor/internal/cli/repl"

	"github.com/chzyer/readline"
)

const defaultConfigPath = "configs/cli.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	baseURL := flag.String("base", "", "Override base URL")
	timeout := flag.Duration("timeout", 0, "Override HTTP timeout (e.g. 10s)")
	outputDir := flag.String("out", "", "Override directory for saved SVG files")
	pretty := flag.Bool("pretty", false, "Pretty print JSON response")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *pretty {
		trueValue := true
		cfg.PrettyJSON = &trueValue
	}

	commands := command.Registry()
	rl, err := readline.NewEx(&readline.Config{
		HistoryFile:     cfg.HistoryFile,
		AutoComplete:    repl.Completer(commands),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init terminal failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	client := httpclient.New(cfg.BaseURL, cfg.Timeout)
	session := repl.New(client, commands, rl, rl.Stdout(), cfg.PrettyJSON != nil && *cfg.PrettyJSON, cfg.OutputDir)
	session.Run(context.Background())
}
