// cmd/chat/main.go
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"dinediscover/internal/app"
	"dinediscover/internal/chat"
	"dinediscover/internal/common/config"
	apphttp "dinediscover/internal/common/http"
	"dinediscover/internal/common/logger"
	"dinediscover/internal/ui/terminal"
)

var (
	apiURL   = flag.String("api-url", "", "Backend base URL (overrides client.api_base_url)")
	noColor  = flag.Bool("no-color", false, "Disable colored output")
	logLevel = flag.String("log-level", "", "Log level (overrides logging.level)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	baseURL := cfg.Client.APIBaseURL
	if *apiURL != "" {
		baseURL = *apiURL
	}
	if baseURL == "" {
		baseURL = config.DefaultAPIBaseURL
	}
	if *noColor || cfg.Client.NoColor {
		color.NoColor = true
	}
	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	} else if level == "info" {
		// keep the conversation readable unless asked otherwise
		level = "warn"
	}

	zapLog := logger.New(level, "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	renderer := terminal.NewRenderer(os.Stdout)
	notifier := terminal.NewNotifier(os.Stdout)
	query := apphttp.NewQueryClient(baseURL, config.GetDuration(cfg.Client.Timeout))
	ctrl := chat.NewController(query, notifier, &app.ChatLogger{Logger: log})

	zapLog.Info("chat client started", zap.String("apiBaseURL", baseURL))

	lines := make(chan string)
	go readLines(lines)

	draw := func() {
		if err := renderer.Render(ctrl.View()); err != nil {
			zapLog.Error("render failed", zap.Error(err))
		}
	}

	draw()
	renderer.Prompt()

	for {
		select {
		case <-sigCh:
			fmt.Println()
			return

		case line, ok := <-lines:
			if !ok {
				if !ctrl.Submitting() {
					fmt.Println()
					return
				}
				// stdin closed while a query is outstanding; wait for it
				lines = nil
				continue
			}
			if strings.EqualFold(strings.TrimSpace(line), "exit") {
				return
			}
			ctrl.SetInput(line)
			if !ctrl.Submit(ctx) {
				if ctrl.Submitting() {
					notifier.Notify("Still waiting for the previous answer.")
				}
				renderer.Prompt()
				continue
			}
			draw()

		case comp := <-ctrl.Done():
			ctrl.Resolve(comp)
			draw()
			if lines == nil {
				return
			}
			renderer.Prompt()
		}
	}
}

func readLines(out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}
