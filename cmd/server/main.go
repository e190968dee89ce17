package main

import (
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"alumnet/internal/auth/guard"
	"alumnet/internal/auth/password"
	authservice "alumnet/internal/auth/service"
	"alumnet/internal/auth/store/revocation"
	"alumnet/internal/auth/token"
	collegemetrics "alumnet/internal/college/metrics"
	collegeservice "alumnet/internal/college/service"
	collegestore "alumnet/internal/college/store"
	identityservice "alumnet/internal/identity/service"
	identitystore "alumnet/internal/identity/store"
	jobmetrics "alumnet/internal/job/metrics"
	jobservice "alumnet/internal/job/service"
	jobstore "alumnet/internal/job/store"
	"alumnet/internal/notify"
	"alumnet/internal/platform/config"
	"alumnet/internal/platform/httpserver"
	"alumnet/internal/platform/logger"
	redisclient "alumnet/internal/platform/redis"
	referralmetrics "alumnet/internal/referral/metrics"
	referralservice "alumnet/internal/referral/service"
	referralstore "alumnet/internal/referral/store"
	httptransport "alumnet/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps
// the server lifecycle small. Business logic lives in the internal
// service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	var (
		colleges  collegeservice.Store  = collegestore.NewInMemory()
		users     identityservice.Store = identitystore.NewInMemory()
		referrals referralservice.Store = referralstore.NewInMemory()
		jobs      jobservice.Store      = jobstore.NewInMemory()
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}
		colleges = collegestore.NewPostgres(db)
		users = identitystore.NewPostgres(db)
		referrals = referralstore.NewPostgres(db)
		jobs = jobstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		log.Info("no DATABASE_URL, using in-memory stores")
	}

	var revoked authservice.RevocationList = revocation.NewInMemory()
	rc, err := redisclient.New(cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if rc != nil {
		revoked = revocation.NewRedis(rc.Client)
		log.Info("using redis revocation list")
	}

	hasher := password.NewHasher(cfg.BcryptCost)
	tokens := token.NewService(token.Config{
		SigningKey: []byte(cfg.JWTSigningKey),
		TTL:        cfg.SessionTTL,
		Issuer:     cfg.TokenIssuer,
	})
	mailer := notify.LogMailer{Logger: log}

	collegeRegistry := collegeservice.NewRegistry(colleges,
		collegeservice.WithMetrics(collegemetrics.New()))
	identities := identityservice.New(users, collegeRegistry, hasher, mailer, log)
	sessions := authservice.New(identities, tokens, hasher, revoked, mailer, log)
	accessGuard := guard.New(sessions, identities, collegeRegistry)
	referralSvc := referralservice.New(referrals, identities, log,
		referralservice.WithMetrics(referralmetrics.New()))
	jobSvc := jobservice.New(jobs, collegeRegistry, log,
		jobservice.WithMetrics(jobmetrics.New()))

	router := httptransport.NewRouter(httptransport.Handlers{
		Auth:     httptransport.NewAuthHandler(identities, sessions),
		College:  httptransport.NewCollegeHandler(collegeRegistry, accessGuard),
		Referral: httptransport.NewReferralHandler(referralSvc, accessGuard),
		Job:      httptransport.NewJobHandler(jobSvc, accessGuard),
	}, accessGuard)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting alumnet", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	if err := httpserver.Shutdown(srv); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
