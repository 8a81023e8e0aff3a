package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/careloop/crm/agent/contract"
	processorx "github.com/careloop/crm/agent/processor"
	storex "github.com/careloop/crm/agent/store"
	summaryx "github.com/careloop/crm/agent/summary"
	toolx "github.com/careloop/crm/agent/tool"
	configx "github.com/careloop/crm/pkg/config"
	groqx "github.com/careloop/crm/pkg/groq"
	_ "github.com/careloop/crm/pkg/logger/autoload"
	serverx "github.com/careloop/crm/server"
)

type AppConfig struct {
	DatabaseDSN string `envconfig:"DATABASE_DSN" default:"healthcare_crm.db"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")
	srvCfg := configx.MustNew[serverx.Config]("HTTP")
	groqCfg := configx.MustNew[groqx.Config]("GROQ")

	db, err := storex.Open(appCfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	st := storex.NewBunStore(db)
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	if err := st.Init(initCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	cancelInit()

	// Summarizer selection happens once at startup; the external variant
	// still falls back per call when the model misbehaves.
	var summarizer contractx.Summarizer
	if client := groqx.NewClient(*groqCfg); client != nil {
		summarizer = summaryx.NewExternal(client, client.Model())
		log.Info().Str("model", client.Model()).Msg("external summarizer enabled")
	} else {
		summarizer = summaryx.NewDeterministic()
		log.Info().Msg("no model configured, using deterministic summarizer")
	}

	tools := toolx.NewToolset(st)
	proc, err := processorx.New(tools, summarizer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build interaction processor")
	}

	srv := &http.Server{
		Addr:    srvCfg.Addr,
		Handler: serverx.New(*srvCfg, proc, tools, st),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srvCfg.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
