// Foodify: a terminal client for the food delivery cart and its
// assistant.
//
// Usage:
//
//	foodify [-config foodify.yaml] [-verbose] [-quiet] [-offline]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hammamikhairi/foodify/internal/cart"
	"github.com/hammamikhairi/foodify/internal/cartapi"
	"github.com/hammamikhairi/foodify/internal/catalog"
	"github.com/hammamikhairi/foodify/internal/chat"
	"github.com/hammamikhairi/foodify/internal/command"
	"github.com/hammamikhairi/foodify/internal/config"
	"github.com/hammamikhairi/foodify/internal/display"
	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/gemini"
	"github.com/hammamikhairi/foodify/internal/logger"
	"github.com/hammamikhairi/foodify/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", ".foodify/foodify.log", "file to write logs to (use \"stderr\" to log to console)")
	offline := flag.Bool("offline", false, "serve the cart API in process even if a cart API URL is set")
	flag.Parse()

	logLevel := logger.LevelNormal
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	// Logs go to a file by default so the prompt stays clean.
	var logOut io.Writer = os.Stderr
	if *logFile != "" && *logFile != "stderr" {
		if dir := filepath.Dir(*logFile); dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", *logFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logLevel, logOut)

	cfg, err := config.Load(*configPath, ".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire dependencies.
	restaurants := catalog.NewMemorySource(log)
	orders := storage.NewOrderLog(log)

	var kv domain.KeyValueStore
	fileKV, err := storage.NewFileKV(filepath.Join(cfg.DataDir, "kv"), log)
	if err != nil {
		log.Warn("persistent storage unavailable, cart will not survive restarts: %v", err)
		kv = storage.NewMemoryKV(log)
	} else {
		kv = fileKV
	}

	user := domain.UserInfo{IsAuthenticated: true, Name: cfg.User.Name, Role: cfg.User.Role}
	nav := newRouter(restaurants, user, []byte(cfg.Cart.Secret), cfg.Cart.Token)

	apiURL := cfg.Cart.APIURL
	if apiURL == "" || *offline {
		url, shutdown, err := serveStub(restaurants, cfg, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: starting in-process cart API: %v\n", err)
			os.Exit(1)
		}
		defer shutdown()
		apiURL = url
	}
	remote := cartapi.NewClient(apiURL, log, cartapi.WithTokenSource(nav))

	cartOpts := []cart.Option{cart.WithDeliveryFee(domain.Money(cfg.Cart.DeliveryFee))}
	if cfg.Cart.Serialized {
		cartOpts = append(cartOpts, cart.WithSerializedMutations())
	}
	carts := cart.New(remote, kv, log, cartOpts...)
	defer carts.Close()

	var gen domain.Generator
	if cfg.Offline() {
		gen = gemini.NewOffline(log)
		log.Info("assistant offline: set %s to enable Gemini", config.EnvGeminiAPIKey)
	} else {
		gen = gemini.NewClient(cfg.Gemini.APIKey, log,
			gemini.WithBaseURL(cfg.Gemini.BaseURL),
			gemini.WithModel(cfg.Gemini.Model),
			gemini.WithTemperature(cfg.Gemini.Temperature),
			gemini.WithMaxTokens(cfg.Gemini.MaxTokens),
			gemini.WithHTTPTimeout(cfg.Gemini.Timeout),
		)
		log.Info("assistant enabled (model=%s)", cfg.Gemini.Model)
	}

	pipeOpts := []chat.PipelineOption{
		chat.WithRateLimits(chat.RateLimits{PerMinute: cfg.Chat.PerMinute, PerHour: cfg.Chat.PerHour}),
		chat.WithRetryPolicy(chat.RetryPolicy{MaxAttempts: cfg.Chat.MaxAttempts, BaseDelay: cfg.Chat.RetryBaseDelay}),
		chat.WithHistoryLimit(cfg.Chat.HistoryTurns),
	}
	if cfg.Chat.TokenBudget > 0 {
		pipeOpts = append(pipeOpts, chat.WithTokenBudget(chat.NewTokenCounter(log), cfg.Chat.TokenBudget))
	}
	pipeline := chat.NewPipeline(gen, log, pipeOpts...)

	contexts := chat.NewContextService(chat.Sources{
		Pages:       nav,
		Users:       nav,
		Cart:        carts,
		Restaurants: nav,
		Orders:      orders,
	}, log)
	session := chat.NewSession(pipeline, contexts, nav, log)
	defer session.Close()

	// Keep the assistant's view of the cart current.
	unsubscribe := carts.Subscribe(func(domain.CartState) {
		summary := carts.Summary()
		session.UpdatePlatformContext(domain.ContextUpdate{Cart: &summary})
	})
	defer unsubscribe()

	ui := display.NewUI(func() display.Status {
		st := carts.State()
		snap := session.Snapshot()
		quick := make([]string, len(snap.QuickActions))
		for i, qa := range snap.QuickActions {
			quick[i] = qa.Label
		}
		return display.Status{
			Cart:    carts.Summary(),
			Page:    snap.PlatformContext.Page.Type,
			User:    snap.PlatformContext.User.Name,
			Quick:   quick,
			Typing:  snap.IsTyping,
			Loading: st.Loading,
			Offline: cfg.Offline(),
		}
	})

	app := &cliApp{
		carts:       carts,
		session:     session,
		catalog:     restaurants,
		orders:      orders,
		nav:         nav,
		parser:      command.NewParser(log),
		log:         log,
		ui:          ui,
		printed:     make(map[string]bool),
		defaultUser: cfg.User.Name,
	}

	fmt.Println(display.RenderBanner())

	go func() {
		ui.WaitReady()
		app.run(ctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal. Blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()
}

// serveStub starts the in-process cart API on a loopback port.
func serveStub(restaurants domain.CatalogSource, cfg *config.Config, log *logger.Logger) (string, func(), error) {
	opts := []cartapi.StubOption{cartapi.WithFlatDeliveryFee(domain.Money(cfg.Cart.DeliveryFee))}
	if cfg.Cart.Secret != "" {
		opts = append(opts, cartapi.WithSecret([]byte(cfg.Cart.Secret)))
	}
	stub := cartapi.NewStub(restaurants, log, opts...)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}
	srv := &http.Server{Handler: stub}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("cart API stub: %v", err)
		}
	}()
	log.Info("cart API served in process at %s", ln.Addr())
	return "http://" + ln.Addr().String(), func() { srv.Close() }, nil
}
