// Package router assembles the Gin engine: global middleware, versioned route
// groups, and the role gates in front of each group.
package router

import (
	"rncdesk/internal/config"
	"rncdesk/internal/handler"
	"rncdesk/internal/middleware"
	"rncdesk/internal/model"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Deps carries every handler the router mounts.
type Deps struct {
	Cfg          *config.Config
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Ocorrencias  *handler.OcorrenciaHandler
	Chamados     *handler.ChamadoHandler
	Dashboard    *handler.DashboardHandler
	Notificacoes *handler.NotificacaoHandler
	Catalogo     *handler.CatalogoHandler
	Admin        *handler.AdminHandler
}

func Setup(deps Deps) *gin.Engine {
	if deps.Cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.CORS(),
		middleware.ErrorHandler(),
		middleware.RateLimiter(),
	)

	r.GET("/health", deps.Health.Check)
	if deps.Cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), deps.Auth.Login)
		auth.POST("/refresh", deps.Auth.Refresh)
	}

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(deps.Cfg.JWTSecret))
	{
		ocorrencias := protected.Group("/ocorrencias")
		{
			ocorrencias.GET("/pendentes", deps.Ocorrencias.ListPendentes)
			ocorrencias.GET("/concluidas", deps.Ocorrencias.ListConcluidas)
			ocorrencias.GET("/:id", deps.Ocorrencias.Get)
			ocorrencias.GET("/:id/pdf", deps.Ocorrencias.RelatorioPDF)
			ocorrencias.POST("", deps.Ocorrencias.Salvar)
			ocorrencias.DELETE("/:id", deps.Ocorrencias.Excluir)

			// Only leaders and admins act on someone else's record.
			gestao := ocorrencias.Group("")
			gestao.Use(middleware.RequireRole(model.PapelLider, model.PapelAdmin))
			{
				gestao.POST("/:id/rejeitar", deps.Ocorrencias.Rejeitar)
				gestao.POST("/:id/concluir", deps.Ocorrencias.Concluir)
			}
		}

		chamados := protected.Group("/chamados")
		{
			chamados.POST("", deps.Chamados.Chamar)

			painel := chamados.Group("")
			painel.Use(middleware.RequireRole(model.PapelLider, model.PapelAdmin))
			{
				painel.GET("", deps.Chamados.Recentes)
				painel.POST("/:id/lido", deps.Chamados.MarcarLido)
			}
		}

		dashboard := protected.Group("/dashboard")
		{
			dashboard.GET("/estatisticas", deps.Dashboard.Estatisticas)
			dashboard.GET("/stream", deps.Dashboard.Stream)
		}

		notificacoes := protected.Group("/notificacoes")
		{
			notificacoes.POST("/permissao", deps.Notificacoes.Permissao)
			notificacoes.POST("/atividade", deps.Notificacoes.Atividade)
			notificacoes.GET("/stream", deps.Notificacoes.Stream)
		}

		protected.GET("/catalogo/:codigo", deps.Catalogo.Buscar)

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireRole(model.PapelAdmin))
		{
			admin.GET("/ambiente", deps.Admin.Ambiente)
			admin.POST("/ambiente", deps.Admin.TrocarAmbiente)
			admin.GET("/dlq/:fila", deps.Admin.DLQ)
			admin.POST("/dlq/:fila/reprocessar", deps.Admin.ReprocessarDLQ)
		}
	}

	return r
}
