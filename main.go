package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"careerHubAPI/handlers"
	"careerHubAPI/internal/cache"
	"careerHubAPI/internal/config"
	"careerHubAPI/internal/llm"
	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/metrics"
	"careerHubAPI/internal/push"
	"careerHubAPI/internal/ranking"
	"careerHubAPI/internal/repository"
	"careerHubAPI/internal/scoring"
	"careerHubAPI/internal/workers"
	"careerHubAPI/middleware"
	"careerHubAPI/services"

	_ "net/http/pprof"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	appLog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer appLog.Sync()

	if err := run(cfg, appLog); err != nil {
		appLog.Fatal("server exited", "error", err)
	}
}

func run(cfg *config.Config, appLog *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ClerkWebhookSecret == "" && cfg.IsProduction() {
		return errors.New("CLERK_WEBHOOK_SECRET must be set in production")
	}

	clerk.SetKey(cfg.ClerkSecretKey)
	appLog.Info("Clerk initialized successfully")

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	poolOpts := repository.DefaultPoolOptions()
	poolOpts.MaxConns = cfg.DBMaxConns
	dbPool, err := repository.Connect(connectCtx, cfg.DatabaseURL, poolOpts)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		appLog.Info("Closing database connection pool...")
		dbPool.Close()
	}()
	appLog.Info("Successfully connected to database")

	appMetrics := metrics.New(prometheus.DefaultRegisterer)
	httpMetrics := middleware.NewHTTPMetrics(prometheus.DefaultRegisterer)

	// -------------------------------------------------------------------------
	// REPOSITORIES & SERVICES
	// -------------------------------------------------------------------------
	userRepo := repository.NewUserRepo()
	streakRepo := repository.NewStreakRepo()
	leaderboardRepo := repository.NewLeaderboardRepo()
	assessmentRepo := repository.NewAssessmentRepo()
	workshopRepo := repository.NewWorkshopRepo()
	notificationRepo := repository.NewNotificationRepo()

	notificationService := services.NewNotificationService(dbPool, userRepo, notificationRepo, appLog)
	dispatcher := services.NewNotificationDispatcher(dbPool, notificationRepo, appLog, 5, 100)
	dispatcher.SetMetrics(appMetrics)
	defer dispatcher.Stop()
	notificationService.SetDispatcher(dispatcher)

	fcmService, err := push.NewFCMService(ctx, appLog, cfg.FCMCredentialsJSON, cfg.FCMCredentialsFile)
	if err != nil {
		appLog.Warn("Could not initialize FCM, push disabled", "error", err)
	} else {
		dispatcher.SetPushProvider(fcmService)
		appLog.Info("FCM Push Provider initialized successfully")
	}

	userService := services.NewUserService(dbPool, userRepo, appLog)

	streakService := services.NewStreakService(dbPool, repository.NewTxRunner(dbPool), userRepo, streakRepo, cfg.Location, appLog)
	streakService.SetNotifier(notificationService)
	streakService.SetMetrics(appMetrics)

	leaderboardService := services.NewLeaderboardService(dbPool, userRepo, leaderboardRepo, assessmentRepo,
		ranking.Options{SyntheticPatterns: cfg.SyntheticEmailPatterns}, appLog)
	leaderboardService.SetMetrics(appMetrics)
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Warn("Redis unavailable, leaderboard cache disabled", "error", err)
		} else {
			defer rdb.Close()
			leaderboardService.SetCache(cache.NewRedisLeaderboardCache(appLog, rdb, cfg.LeaderboardCacheTTL))
			appLog.Info("Leaderboard cache enabled", "ttl", cfg.LeaderboardCacheTTL)
		}
	}

	var scorer scoring.Scorer
	vertex, err := llm.NewVertexAIClient(ctx, llm.Options{
		ProjectID: cfg.GoogleCloudProject,
		Location:  cfg.GoogleCloudLocation,
		Model:     cfg.VertexModel,
	})
	if err != nil {
		appLog.Warn("Vertex AI unavailable, resume scoring disabled", "error", err)
	} else {
		defer vertex.Close()
		scorer = scoring.NewLLMScorer(vertex)
	}
	assessmentService := services.NewAssessmentService(dbPool, userRepo, assessmentRepo, scorer, appLog)
	assessmentService.SetLeaderboard(leaderboardService)
	assessmentService.SetMetrics(appMetrics)

	workshopService := services.NewWorkshopService(dbPool, userRepo, workshopRepo, appLog)
	workshopService.SetNotifier(notificationService)
	workshopService.SetMetrics(appMetrics)

	// -------------------------------------------------------------------------
	// HANDLERS & ROUTES
	// -------------------------------------------------------------------------
	userHandler := handlers.NewUserHandler(userService, appLog)
	streakHandler := handlers.NewStreakHandler(streakService, appLog)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService, appLog)
	assessmentHandler := handlers.NewAssessmentHandler(assessmentService, appLog)
	workshopHandler := handlers.NewWorkshopHandler(workshopService, appLog)
	notificationHandler := handlers.NewNotificationHandler(notificationService, appLog)
	webhookHandler, err := handlers.NewWebhookHandler(userService, streakService, cfg.ClerkWebhookSecret, appLog)
	if err != nil {
		return err
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	r := mux.NewRouter()
	r.Use(rateLimiter.RateLimitMiddleware)
	r.Use(httpMetrics.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(cfg.PprofSecret)(http.DefaultServeMux))

	r.HandleFunc("/health", healthHandler(dbPool)).Methods("GET")
	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware(appLog, middleware.ClerkVerifier))

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/auth/login-ping", streakHandler.LoginPing).Methods("POST")

	protected.HandleFunc("/streaks", streakHandler.GetStreaks).Methods("GET")
	protected.HandleFunc("/streaks/activity", streakHandler.RecordActivity).Methods("POST")
	protected.HandleFunc("/streaks/stats", streakHandler.GetStats).Methods("GET")
	protected.HandleFunc("/streaks/calendar", streakHandler.GetCalendar).Methods("GET")
	protected.HandleFunc("/streaks/log", streakHandler.GetActivityLog).Methods("GET")

	protected.HandleFunc("/leaderboard/resumeathon", leaderboardHandler.GetLeaderboard).Methods("GET")
	protected.HandleFunc("/leaderboard/resumeathon/join", leaderboardHandler.Join).Methods("POST")
	protected.HandleFunc("/leaderboard/resumeathon/join", leaderboardHandler.Leave).Methods("DELETE")

	protected.HandleFunc("/assessments", assessmentHandler.Submit).Methods("POST")
	protected.HandleFunc("/assessments", assessmentHandler.List).Methods("GET")
	protected.HandleFunc("/assessments/latest", assessmentHandler.Latest).Methods("GET")

	protected.HandleFunc("/workshops", workshopHandler.Create).Methods("POST")
	protected.HandleFunc("/workshops", workshopHandler.List).Methods("GET")
	protected.HandleFunc("/workshops/pending", workshopHandler.ListPending).Methods("GET")
	protected.HandleFunc("/workshops/{id}", workshopHandler.Get).Methods("GET")
	protected.HandleFunc("/workshops/{id}/approve", workshopHandler.Approve).Methods("POST")
	protected.HandleFunc("/workshops/{id}/reject", workshopHandler.Reject).Methods("POST")
	protected.HandleFunc("/workshops/{id}/resubmit", workshopHandler.Resubmit).Methods("POST")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins(cfg.AllowedOrigins),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
	)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: corsHandler(r),
		// Resume scoring can hold a request for about a minute.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLog.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		rateLimiter.CleanupVisitors(gctx, time.Minute)
		return nil
	})

	g.Go(func() error {
		workers.RunLeaderboardRefresher(gctx, appLog, leaderboardService, cfg.LeaderboardRefreshInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		appLog.Info("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			appLog.Error("Server shutdown error", "error", err)
		}
		return nil
	})

	err = g.Wait()
	appLog.Info("Server shutdown complete")
	return err
}

func healthHandler(dbPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := dbPool.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "careerhub-api"}`))
	}
}
