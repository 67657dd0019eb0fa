// rncdesk API server: backend of the warehouse non-conformance (RNC) console.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rncdesk/internal/config"
	"rncdesk/internal/handler"
	"rncdesk/internal/infra"
	"rncdesk/internal/model"
	"rncdesk/internal/notify"
	"rncdesk/internal/repository"
	"rncdesk/internal/router"
	"rncdesk/internal/service"
	"rncdesk/internal/store"
	"rncdesk/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title rncdesk API
// @version 1.0
// @description Backend do console de registro de não conformidades (RNC).
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories
	ocorrenciaRepo := repository.NewOcorrenciaRepository(db)
	chamadoRepo := repository.NewChamadoRepository(db)
	usuarioRepo := repository.NewUsuarioRepository(db)

	// Infra
	gateway := notify.NewGateway(rdb)
	mailer := infra.NewMailer(cfg)
	catalogoClient := infra.NewCatalogoClient(cfg.CatalogoURL)
	catalogoBreaker := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	adapter := store.NewAdapter(ocorrenciaRepo, rdb, time.Duration(cfg.SnapshotPollSeconds)*time.Second)
	defer adapter.Close()
	dispatcher := worker.NewDispatcher(rdb)

	// Async workers. The leader mail list comes from config; when unset, fall
	// back to every active LIDER/ADMIN account.
	var destinatarios []string
	if cfg.EmailLideres != "" {
		destinatarios = strings.Split(cfg.EmailLideres, ",")
	} else if lideres, err := usuarioRepo.ListPorPapel(ctx, model.PapelLider, model.PapelAdmin); err == nil {
		for _, l := range lideres {
			destinatarios = append(destinatarios, l.Email)
		}
	}
	worker.StartWorkerPool(ctx, rdb, &worker.WorkerHandlers{
		Notificacao: worker.NewNotificacaoWorker(gateway),
		Email:       worker.NewEmailWorker(mailer, destinatarios),
	}, cfg.WorkerPoolSize)

	// Services
	engine := service.NewOcorrenciaService(service.OcorrenciaDeps{
		Repo:           ocorrenciaRepo,
		Adapter:        adapter,
		Notificador:    gateway,
		Dispatcher:     dispatcher,
		RDB:            rdb,
		Ambiente:       cfg.Ambiente,
		LimiarLembrete: time.Duration(cfg.LembreteLimiarMinutos) * time.Minute,
	})
	engine.Iniciar(ctx)
	engine.IniciarLembretes(ctx)

	chamadoSvc := service.NewChamadoService(service.ChamadoDeps{
		Repo:       chamadoRepo,
		RDB:        rdb,
		Dispatcher: dispatcher,
		Ambiente:   engine.Ambiente,
	})
	dashboardSvc := service.NewDashboardService(engine)
	authSvc := service.NewAuthService(usuarioRepo, cfg)

	r := router.Setup(router.Deps{
		Cfg:          cfg,
		Health:       handler.NewHealthHandler(db, rdb),
		Auth:         handler.NewAuthHandler(authSvc),
		Ocorrencias:  handler.NewOcorrenciaHandler(engine, cfg),
		Chamados:     handler.NewChamadoHandler(chamadoSvc),
		Dashboard:    handler.NewDashboardHandler(dashboardSvc, engine),
		Notificacoes: handler.NewNotificacaoHandler(gateway, chamadoSvc, rdb),
		Catalogo:     handler.NewCatalogoHandler(catalogoClient, catalogoBreaker),
		Admin:        handler.NewAdminHandler(engine, rdb),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Str("ambiente", cfg.Ambiente).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
