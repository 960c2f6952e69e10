package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/gigboard/gigboard-api/internal/config"
	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/logging"
	"github.com/gigboard/gigboard-api/internal/repository/memory"
	miniorepo "github.com/gigboard/gigboard-api/internal/repository/minio"
	"github.com/gigboard/gigboard-api/internal/repository/ports"
	"github.com/gigboard/gigboard-api/internal/repository/postgres"
	"github.com/gigboard/gigboard-api/internal/service"
	transporthttp "github.com/gigboard/gigboard-api/internal/transport/http"
	"github.com/gigboard/gigboard-api/internal/transport/mail"
	"github.com/gigboard/gigboard-api/internal/util"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Printf("logstash writer disabled: %v", err)
		} else {
			defer writer.Close()
			log.SetOutput(io.MultiWriter(os.Stderr, writer))
		}
	}

	var (
		jobRepo  ports.JobRepository
		appRepo  ports.ApplicationRepository
		codeRepo ports.VerificationCodeRepository
		userRepo ports.UserRepository
	)
	if cfg.UseMemoryStore {
		log.Println("using in-memory store, data will not survive a restart")
		store := memory.NewStore()
		jobRepo = store.Jobs()
		appRepo = store.Applications()
		codeRepo = store.VerificationCodes()
		userRepo = store.Users()
	} else {
		db, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("connect to postgres: %v", err)
		}
		defer db.Close()
		jobRepo = postgres.NewJobRepo(db)
		appRepo = postgres.NewApplicationRepo(db)
		codeRepo = postgres.NewVerificationCodeRepo(db)
		userRepo = postgres.NewUserRepo(db)
	}

	var storage ports.ObjectStorage
	if cfg.MinIOEndpoint != "" {
		client, err := miniorepo.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
		if err != nil {
			log.Fatalf("connect to minio: %v", err)
		}
		storage = miniorepo.NewStorage(client)
	}

	mailer := mail.NewMailer(
		cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom,
		notificationRecipients(userRepo),
	)

	var notifier service.Notifier = service.NopNotifier{}
	if cfg.SMTPHost != "" {
		notifier = mailer
	}

	jwtManager := util.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	otpService := service.NewOTPService(codeRepo)
	authService := service.NewAuthService(userRepo, otpService, jwtManager, mailer, cfg.GoogleAudience)
	jobService := service.NewJobService(jobRepo)
	appService := service.NewApplicationService(appRepo, jobRepo, storage, notifier, service.ApplicationServiceConfig{
		ResumeBucket:   cfg.MinIOBucketResume,
		MaxResumeBytes: cfg.MaxResumeBytes,
	})

	var limiter *transporthttp.RedisLimiter
	if cfg.RedisAddr != "" {
		limiter = transporthttp.NewRedisLimiter(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}))
	}

	e := transporthttp.NewRouter(cfg.AllowOrigins)
	transporthttp.RegisterAuthRoutes(e, authService, limiter, cfg.OTPRateLimit, cfg.OTPRateWindow)
	transporthttp.RegisterJobRoutes(e, jobService, appService, authService)
	transporthttp.RegisterApplicationRoutes(e, appService, authService)
	transporthttp.RegisterSwagger(e)

	log.Fatal(e.Start(":" + cfg.Port))
}

// notificationRecipients resolves a lifecycle intent to the email addresses
// that should hear about it: the applicant for decisions, the employer for
// submissions and withdrawals.
func notificationRecipients(users ports.UserRepository) func(ctx context.Context, intent domain.NotificationIntent) []string {
	return func(ctx context.Context, intent domain.NotificationIntent) []string {
		var targets []string
		switch intent.Event {
		case domain.NotifyApplicationAccepted, domain.NotifyApplicationRejected:
			if user, err := users.FindByID(ctx, intent.ApplicantID); err == nil {
				targets = append(targets, user.Email)
			}
		case domain.NotifyApplicationSubmitted, domain.NotifyApplicationWithdrawn:
			if user, err := users.FindByID(ctx, intent.EmployerID); err == nil {
				targets = append(targets, user.Email)
			}
		}
		return targets
	}
}
