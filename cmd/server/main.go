package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qs3c/coa_server/config"
	"github.com/qs3c/coa_server/internal/api"
	"github.com/qs3c/coa_server/internal/api/handler"
	"github.com/qs3c/coa_server/internal/database"
	"github.com/qs3c/coa_server/internal/pkg/aiclient"
	"github.com/qs3c/coa_server/internal/pkg/crypto"
	"github.com/qs3c/coa_server/internal/pkg/langdetect"
	"github.com/qs3c/coa_server/internal/pkg/oauth"
	"github.com/qs3c/coa_server/internal/pkg/pubsub"
	"github.com/qs3c/coa_server/internal/pkg/vcs"
	"github.com/qs3c/coa_server/internal/pkg/ws"
	"github.com/qs3c/coa_server/internal/repository"
	"github.com/qs3c/coa_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	cipher, err := crypto.NewTokenCipher(cfg.Crypto.TokenKey)
	if err != nil {
		log.Fatalf("Failed to init token cipher: %v", err)
	}

	// 初始化外部客户端
	githubClient, err := vcs.NewGithubClient(cfg.VCS.GithubAPIURL, cfg.VCS.RequestTimeout(), cfg.VCS.FilesTimeout())
	if err != nil {
		log.Fatalf("Failed to init github client: %v", err)
	}
	vcsClients := &vcs.Clients{
		Github: githubClient,
		Gitlab: vcs.NewGitlabClient(cfg.VCS.RequestTimeout(), cfg.VCS.FilesTimeout()),
	}
	aiClient := aiclient.New(cfg.AI.BaseURL, cfg.AI.Timeout())
	githubOAuth := oauth.NewGithubOAuth(cfg.OAuth.Github.ClientID, cfg.OAuth.Github.ClientSecret, cfg.OAuth.Github.RedirectURI)

	// 初始化 Repository
	memberRepo := repository.NewMemberRepository(db)
	linkRepo := repository.NewAccountLinkRepository(db)
	codeRepo := repository.NewCodeRepository(db)
	repoViewRepo := repository.NewRepoViewRepository(db)
	alarmRepo := repository.NewAlarmRepository(db)
	bookmarkRepo := repository.NewBookmarkRepository(db)
	jobRepo := repository.NewJobRepository(rdb)

	// 初始化 Service
	locAggregator := service.NewLOCAggregator(vcsClients, langdetect.New(), cfg.Analysis.Concurrency())
	analysisService := service.NewAnalysisService(
		memberRepo, linkRepo, codeRepo, repoViewRepo, jobRepo,
		vcsClients, aiClient, cipher, locAggregator, cfg,
	)
	repoViewService := service.NewRepoViewService(repoViewRepo, memberRepo, codeRepo, alarmRepo)
	memberService := service.NewMemberService(memberRepo, alarmRepo, bookmarkRepo, codeRepo, linkRepo, repoViewRepo)
	accountLinkService := service.NewAccountLinkService(linkRepo, memberRepo, cipher, githubOAuth, oauth.NewStateStore(rdb))
	progressService := service.NewProgressService(jobRepo, pubsub.NewPublisher(rdb))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 进度消息经 Redis 转发给在线会员
	wsHub := ws.NewHub()
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		err := subscriber.Subscribe(ctx, func(msg *pubsub.ProgressMessage) {
			if err := wsHub.SendToMember(msg.MemberID, &ws.Message{Type: pubsub.TypeJobProgress, Data: msg}); err != nil {
				log.Printf("Failed to push progress to member %d: %v", msg.MemberID, err)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Progress subscriber stopped: %v", err)
		}
	}()
	log.Println("Progress subscriber started")

	// 初始化 Handler
	router := api.NewRouter(
		handler.NewAnalysisHandler(analysisService),
		handler.NewRepoViewHandler(repoViewService),
		handler.NewMemberHandler(memberService),
		handler.NewAccountLinkHandler(accountLinkService, cfg.OAuth.Github.FrontendURI),
		handler.NewProgressHandler(progressService),
		handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret, cfg.CORS.AllowedOrigins),
		cfg,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router.Setup(),
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal %v, shutting down...", sig)

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
