package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/coa_server/config"
	"github.com/qs3c/coa_server/internal/api/handler"
	"github.com/qs3c/coa_server/internal/api/middleware"
	"github.com/qs3c/coa_server/internal/pkg/metrics"
)

type Router struct {
	analysisHandler    *handler.AnalysisHandler
	repoViewHandler    *handler.RepoViewHandler
	memberHandler      *handler.MemberHandler
	accountLinkHandler *handler.AccountLinkHandler
	progressHandler    *handler.ProgressHandler
	websocketHandler   *handler.WebSocketHandler
	cfg                *config.Config
}

func NewRouter(
	analysisHandler *handler.AnalysisHandler,
	repoViewHandler *handler.RepoViewHandler,
	memberHandler *handler.MemberHandler,
	accountLinkHandler *handler.AccountLinkHandler,
	progressHandler *handler.ProgressHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
) *Router {
	return &Router{
		analysisHandler:    analysisHandler,
		repoViewHandler:    repoViewHandler,
		memberHandler:      memberHandler,
		accountLinkHandler: accountLinkHandler,
		progressHandler:    progressHandler,
		websocketHandler:   websocketHandler,
		cfg:                cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	if r.cfg.Metrics.Enabled {
		path := r.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(metrics.Handler()))
	}

	// AI 服务回调
	internal := engine.Group("/internal")
	internal.Use(middleware.InternalToken(r.cfg.AI.CallbackSecret))
	{
		internal.PUT("/analyses/:analysisId/progress", r.progressHandler.Update)
	}

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// GitHub 授权回调由浏览器跳转，不带认证头
		api.GET("/account-links/github/callback", r.accountLinkHandler.GithubCallback)

		// 公开接口 - 会员仓库列表（可选认证）
		api.GET("/members/:memberId/repos", middleware.OptionalAuth(r.cfg.JWT.Secret), r.repoViewHandler.ListByMember)

		// 公开接口 - 技能统计
		api.GET("/members/skills/count", r.memberHandler.CountBySkill)
		api.GET("/repos/skills/count", r.repoViewHandler.CountBySkill)

		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			// 分析
			repos := authenticated.Group("/repos")
			{
				repos.POST("/analysis", r.analysisHandler.Start)
				repos.GET("/analysis/:analysisId", r.analysisHandler.Check)
				repos.GET("/analysis/done/:analysisId", r.analysisHandler.GetDoneResult)
				repos.POST("/:analysisId", r.analysisHandler.Save)

				repos.GET("/:repoViewId", r.repoViewHandler.Read)
				repos.PUT("/readme/:repoViewId", r.repoViewHandler.EditReadme)
				repos.PUT("/comments/:repoViewId", r.repoViewHandler.EditComments)
				repos.PUT("/repoCard/:repoViewId", r.repoViewHandler.EditRepoCard)
			}

			// 会员
			members := authenticated.Group("/members")
			{
				members.GET("/me", r.memberHandler.GetInfo)
				members.PUT("/me", r.memberHandler.EditProfile)
				members.GET("/analysis", r.memberHandler.Analysis)
				members.GET("/alarms", r.memberHandler.ListAlarms)
				members.GET("/alarms/new", r.memberHandler.NewAlarmCount)
				members.GET("/bookmarks", r.memberHandler.ListBookmarks)
				members.POST("/bookmarks/:memberUuid", r.memberHandler.ToggleBookmark)
			}

			// 第三方账号
			links := authenticated.Group("/account-links")
			{
				links.GET("", r.accountLinkHandler.List)
				links.PUT("/gitlab", r.accountLinkHandler.LinkGitlab)
				links.GET("/github", r.accountLinkHandler.GithubAuthURL)
			}
		}
	}

	return engine
}
