package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/term"

	"github.com/SIVIRA/unwallet-provider-js/pkg/log"
	"github.com/SIVIRA/unwallet-provider-js/pkg/provider"
)

const metricsEndpoint = "/metrics"

func main() {
	log.SetupSystemLogging(os.Getenv("LOG_LEVEL"))
	sysLogger := log.NewSystemLogger("unwallet-console")

	config, err := LoadConfig(sysLogger.WithName("config"))
	if err != nil {
		fmt.Printf("Failed to load configuration: %s\n", err.Error())
		return
	}

	logger := log.NewZapLogger(config.Log)

	store, closeStore, err := OpenCacheStore(config)
	if err != nil {
		fmt.Printf("Failed to open cache store: %s\n", err.Error())
		return
	}
	defer closeStore()

	opts := []provider.Option{
		provider.WithLogger(logger),
		provider.WithCacheStore(store),
	}

	var metricsServer *http.Server
	if config.MetricsAddr != "" {
		opts = append(opts, provider.WithMetrics(provider.NewMetrics()))

		metricsMux := http.NewServeMux()
		metricsMux.Handle(metricsEndpoint, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:    config.MetricsAddr,
			Handler: metricsMux,
		}

		go func() {
			logger.Info("Prometheus metrics available", "listenAddr", config.MetricsAddr, "endpoint", metricsEndpoint)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failure", "error", err)
			}
		}()
	}

	ui := NewTerminalUI(os.Stdout, nil)
	p, err := provider.New(config.Provider, append(opts, provider.WithUI(ui))...)
	if err != nil {
		fmt.Printf("Failed to create provider: %s\n", err.Error())
		return
	}
	defer p.Close()

	operator := NewOperator(p, ui, config, logger)

	fmt.Printf("unWallet console (%s). Type 'connect' to start.\n", config.Provider.Env)

	initialState, _ := term.GetState(int(os.Stdin.Fd()))
	handleExit := func() {
		if initialState != nil {
			term.Restore(int(os.Stdin.Fd()), initialState)
		}
		exec.Command("stty", "sane").Run()
	}

	options := append(getStyleOptions(),
		prompt.OptionPrefix(">>> "),

		prompt.OptionAddKeyBind(prompt.KeyBind{
			Key: prompt.ControlC,
			Fn: func(buf *prompt.Buffer) {
				fmt.Println("Exiting unWallet console.")
				handleExit()
				os.Exit(0)
			},
		}),
		prompt.OptionAddKeyBind(prompt.KeyBind{
			Key: prompt.ControlD,
			Fn:  func(buf *prompt.Buffer) {},
		}),
	)
	repl := prompt.New(
		operator.Execute,
		operator.Complete,
		options...,
	)

	promptExitCh := make(chan struct{})
	go func() {
		repl.Run()
		close(promptExitCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-operator.Wait():
		fmt.Println("Operator exited.")
	case <-promptExitCh:
		fmt.Println("Prompt exited.")
	case <-stop:
		fmt.Println("Interrupted.")
	}
	operator.exit()
	handleExit()

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error("failed to shut down metrics server", "error", err)
		}
	}
	fmt.Println("Exiting unWallet console.")
}

func getStyleOptions() []prompt.Option {
	return []prompt.Option{
		prompt.OptionTitle("unWallet console"),
		prompt.OptionPrefixTextColor(prompt.Yellow),
		prompt.OptionPreviewSuggestionTextColor(prompt.Cyan),

		prompt.OptionSuggestionTextColor(prompt.White),
		prompt.OptionSuggestionBGColor(prompt.DarkBlue),

		prompt.OptionDescriptionTextColor(prompt.Black),
		prompt.OptionDescriptionBGColor(prompt.Yellow),

		prompt.OptionSelectedSuggestionTextColor(prompt.Black),
		prompt.OptionSelectedSuggestionBGColor(prompt.Yellow),

		prompt.OptionSelectedDescriptionTextColor(prompt.White),
		prompt.OptionSelectedDescriptionBGColor(prompt.DarkBlue),

		prompt.OptionShowCompletionAtStart(),
	}
}
