package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/config"
	s3infra "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/infra/s3"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/jobs/cleanup"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/pkg/cache"
	pgrepo "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/repo/postgres"
	redrepo "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/repo/redis"
	analyticsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/analytics"
	authsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/authz"
	coursesvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/courses"
	enrollsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/enrollments"
	lessonsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/lessons"
	paymentsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/payments"
	ratesvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/rate"
	reviewsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/reviews"
	userssvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/users"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	sweeper    *cleanup.Sweeper
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	userRepo := pgrepo.NewUserRepo(pool)
	courseRepo := pgrepo.NewCourseRepo(pool)
	lessonRepo := pgrepo.NewLessonRepo(pool)
	enrollmentRepo := pgrepo.NewEnrollmentRepo(pool)
	reviewRepo := pgrepo.NewReviewRepo(pool)
	paymentRepo := pgrepo.NewPaymentRepo(pool)

	// Without redis the registry lives in process memory and login rate
	// limiting is off. Fine for dev, not for a multi-instance deploy.
	var registry authsvc.RefreshRegistry
	var rateLimiter *ratesvc.Limiter
	if redisClient != nil {
		registry = redrepo.NewRegistryRepo(redisClient)
		rateLimiter = ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient), cfg.Limits.LoginPerMinute)
	} else {
		log.Warn("redis is not configured, using in-process refresh registry")
		registry = authsvc.NewMemoryRegistry()
	}

	var s3Client *minio.Client
	var storage *s3infra.Storage
	if c, err := s3infra.NewClient(cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.UseSSL); err != nil {
		log.Warn("s3 init failed, video upload and playback are disabled", zap.Error(err))
	} else {
		s3Client = c
		storage = s3infra.NewStorage(c, cfg.S3.Bucket)
	}

	listCache := cache.New(cfg.Cache.TTL)
	sweeper := cleanup.NewSweeper(listCache, cfg.Cache.CleanupInterval, log)

	codec := authsvc.NewCodec(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	authService := authsvc.NewService(userRepo, registry, codec)
	policy := authz.NewPolicy(enrollmentRepo)
	var courseStorage coursesvc.ObjectStorage
	var lessonStorage lessonsvc.ObjectStorage
	if storage != nil {
		courseStorage = storage
		lessonStorage = storage
	}
	courseService := coursesvc.NewService(courseRepo, policy, listCache, courseStorage)
	lessonService := lessonsvc.NewService(lessonRepo, courseRepo, policy, lessonStorage)

	enrollmentService := enrollsvc.NewService(enrollmentRepo, courseRepo, lessonRepo)
	reviewService := reviewsvc.NewService(reviewRepo, courseRepo, enrollmentRepo, policy)
	paymentService := paymentsvc.NewService(paymentRepo, courseRepo, enrollmentRepo, cfg.Payments.WebhookSecret)
	analyticsService := analyticsvc.NewService(courseRepo, enrollmentRepo, paymentRepo)
	userService := userssvc.NewService(userRepo, registry)

	RegisterRoutes(r, Dependencies{
		AuthService:       authService,
		Codec:             codec,
		CourseService:     courseService,
		LessonService:     lessonService,
		EnrollmentService: enrollmentService,
		ReviewService:     reviewService,
		PaymentService:    paymentService,
		AnalyticsService:  analyticsService,
		UserService:       userService,
		RateLimiter:       rateLimiter,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		sweeper:    sweeper,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.sweeper.Start()
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	a.sweeper.Stop()
	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
