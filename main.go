package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	classifierx "github.com/pattarin-dev/shopflow/agent/classifier"
	gatex "github.com/pattarin-dev/shopflow/agent/gate"
	llmx "github.com/pattarin-dev/shopflow/agent/llm"
	orchestratorx "github.com/pattarin-dev/shopflow/agent/orchestrator"
	statex "github.com/pattarin-dev/shopflow/agent/state"
	toolx "github.com/pattarin-dev/shopflow/agent/tool"
	cartx "github.com/pattarin-dev/shopflow/cart"
	catalogx "github.com/pattarin-dev/shopflow/catalog"
	checkoutx "github.com/pattarin-dev/shopflow/checkout"
	configx "github.com/pattarin-dev/shopflow/pkg/config"
	_ "github.com/pattarin-dev/shopflow/pkg/logger/autoload"
	stripex "github.com/pattarin-dev/shopflow/pkg/stripe"
	serverx "github.com/pattarin-dev/shopflow/server"
)

type AppConfig struct {
	SessionBackend     string `envconfig:"SESSION_BACKEND" split_words:"true" default:"memory"`
	MaxSuggestions     int    `envconfig:"MAX_SUGGESTIONS" split_words:"true" default:"5"`
	CheckoutSuccessURL string `envconfig:"CHECKOUT_SUCCESS_URL" split_words:"true"`
	CheckoutCancelURL  string `envconfig:"CHECKOUT_CANCEL_URL" split_words:"true"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("APP")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	serverCfg := configx.MustNew[serverx.Config]("SERVER")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalogGW := catalogx.NewMemory(catalogx.SeedProducts())
	carts := cartx.NewStore()

	stripeCfg := configx.MustNew[stripex.Config]("STRIPE")
	stripeClient := stripex.MustNew(*stripeCfg)
	checkoutGW, err := checkoutx.NewGateway(stripeClient)
	if err != nil {
		log.Fatal().Err(err).Msg("create checkout gateway")
	}

	store, err := newSessionStore(appCfg.SessionBackend)
	if err != nil {
		log.Fatal().Err(err).Msg("create session store")
	}
	sessions, err := statex.NewManager(store)
	if err != nil {
		log.Fatal().Err(err).Msg("create session manager")
	}

	tools, err := toolx.NewGateway(catalogGW, carts, checkoutGW)
	if err != nil {
		log.Fatal().Err(err).Msg("create tool gateway")
	}
	gate, err := gatex.New(sessions, tools)
	if err != nil {
		log.Fatal().Err(err).Msg("create confirmation gate")
	}

	classifier, writer, err := classifierx.New(ctx, *llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create llm components")
	}

	svc, err := orchestratorx.New(sessions, carts, catalogGW, tools, gate, classifier, writer, orchestratorx.Config{
		MaxSuggestions: appCfg.MaxSuggestions,
		SuccessURL:     appCfg.CheckoutSuccessURL,
		CancelURL:      appCfg.CheckoutCancelURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create orchestrator")
	}

	handler := serverx.NewHandler(svc, catalogGW)
	wsHandler := serverx.NewWebSocketHandler(svc, []string{serverCfg.AllowedOrigin})
	router := serverx.NewRouter(handler, wsHandler, *serverCfg)
	srv := serverx.NewServer(router, *serverCfg)

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	stop()

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

func newSessionStore(backend string) (statex.Store, error) {
	switch backend {
	case "upstash":
		cfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH")
		return statex.NewUpstashRedisStore(*cfg)
	case "memory", "":
		cfg := configx.MustNew[statex.MemoryConfig]("SESSION")
		return statex.NewMemoryStore(*cfg), nil
	default:
		return nil, errors.New("unsupported session backend: " + backend)
	}
}
