package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"medilink/internal/audit"
	authhandler "medilink/internal/auth/handler"
	authservice "medilink/internal/auth/service"
	userstore "medilink/internal/auth/store/user"
	doctorhandler "medilink/internal/doctor/handler"
	doctorservice "medilink/internal/doctor/service"
	doctorstore "medilink/internal/doctor/store"
	"medilink/internal/health"
	"medilink/internal/jwttoken"
	"medilink/internal/otp"
	patienthandler "medilink/internal/patient/handler"
	patientservice "medilink/internal/patient/service"
	patientstore "medilink/internal/patient/store"
	"medilink/internal/platform/blobstore"
	"medilink/internal/platform/config"
	"medilink/internal/platform/httpserver"
	"medilink/internal/platform/logger"
	"medilink/internal/platform/metrics"
	platformredis "medilink/internal/platform/redis"
	reghandler "medilink/internal/registration/handler"
	regservice "medilink/internal/registration/service"
	regstore "medilink/internal/registration/store"
	httptransport "medilink/internal/transport/http"
)

// main wires the dependency graph and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		logger.New().Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	var pingers []health.Pinger

	// Redis backs wizard sessions and OTP identity tokens. Without it the
	// server falls back to in-process stores, which is fine for development.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var (
		sessions regservice.SessionStore = regstore.NewMemory()
		tokens   otp.TokenStore          = otp.NewMemoryTokenStore()
	)
	if redisClient != nil {
		defer redisClient.Close()
		sessions = regstore.NewRedis(redisClient.Client, cfg.SessionTTL)
		tokens = otp.NewRedisTokenStore(redisClient.Client, cfg.SessionTTL)
		pingers = append(pingers, health.PingerFunc{Dependency: "redis", Check: redisClient.Health})
		log.Info("redis connected")
	} else {
		log.Warn("redis not configured, using memory session stores")
	}

	// Postgres backs accounts. Same deal: no DATABASE_URL means memory.
	var (
		users    authservice.UserStore = userstore.NewMemory()
		patients patientservice.Store  = patientstore.NewMemory()
		doctors  doctorservice.Store   = doctorstore.NewMemory()
	)
	if cfg.Postgres.URL != "" {
		db, err := sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}

		userPG := userstore.NewPostgres(db)
		patientPG := patientstore.NewPostgres(db)
		doctorPG := doctorstore.NewPostgres(db)
		for _, ensure := range []func(context.Context) error{
			userPG.EnsureSchema, patientPG.EnsureSchema, doctorPG.EnsureSchema,
		} {
			if err := ensure(ctx); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
		}
		users, patients, doctors = userPG, patientPG, doctorPG
		pingers = append(pingers, health.PingerFunc{Dependency: "postgres", Check: db.PingContext})
		log.Info("postgres connected")
	} else {
		log.Warn("postgres not configured, using memory account stores")
	}

	blobs, err := blobstore.NewDisk(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("init upload dir: %w", err)
	}

	// Audit events flow through an in-process publisher to Kafka when
	// brokers are configured, otherwise to the log.
	auditor := audit.NewPublisher(log, 256)
	var sink audit.Sink = audit.NewLogSink(log)
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("audit events publishing to kafka", "topic", cfg.Kafka.AuditTopic)
	}
	auditWorker := audit.NewWorker(auditor, sink, log)

	var provider otp.Provider = otp.NewLocalProvider(log)
	if cfg.OTP.BaseURL != "" {
		provider = otp.NewHTTPProvider(cfg.OTP.BaseURL, cfg.OTP.APIKey, cfg.OTPRequestTimeout)
	} else {
		log.Warn("OTP provider not configured, codes are logged instead of sent")
	}
	verifier := otp.NewVerifier(provider, tokens, log, m, auditor)

	tokenSvc := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)
	validator := jwttoken.NewMiddlewareAdapter(tokenSvc)

	authSvc := authservice.New(users, tokenSvc, cfg.TokenTTL, log, m, auditor)
	patientSvc := patientservice.New(patients, authSvc, users, log, m, auditor)
	doctorSvc := doctorservice.New(doctors, authSvc, users, blobs, log, m, auditor)
	regSvc := regservice.New(sessions, verifier, patientSvc, doctorSvc, blobs, cfg.SessionTTL, log, m)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Auth:         authhandler.New(authSvc, log, validator),
		Patients:     patienthandler.New(patientSvc, log),
		Doctors:      doctorhandler.New(doctorSvc, log, validator),
		Registration: reghandler.New(regSvc, log),
		Health:       health.New(pingers...),
	})
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return auditWorker.Run(ctx)
	})
	g.Go(func() error {
		log.Info("starting medilink server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}
