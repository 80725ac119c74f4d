package server

import (
	"context"
	"errors"
	"time"

	"backend-pettopia/internal/activity"
	"backend-pettopia/internal/auth"
	"backend-pettopia/internal/config"
	"backend-pettopia/internal/friend"
	"backend-pettopia/internal/logging"
	"backend-pettopia/internal/metrics"
	"backend-pettopia/internal/middleware"
	"backend-pettopia/internal/pet"
	"backend-pettopia/internal/post"
	"backend-pettopia/internal/storage"
	"backend-pettopia/internal/stream"
	"backend-pettopia/internal/walk"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const limiterIdle = 30 * time.Minute

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	// Reaper is nil when no database is configured.
	Reaper *walk.Reaper

	jobs    *cron.Cron
	limiter *middleware.RateLimiter
	log     *logrus.Entry
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	logging.SetLevel(cfg.LogLevel)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		BodyLimit:    storage.MaxImageBytes + 1<<20,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
		jobs:   cron.New(),
		log:    logging.NewDefault("server"),
	}
	s.limiter = middleware.NewRateLimiter(cfg.LocationRatePerSec, cfg.LocationRateBurst, pet.ID)

	registerRoutes(s)
	return s
}

// errorHandler renders every error as {"message": ...}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		logging.NewDefault("server").WithError(err).WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error("request failed")
	}
	return c.Status(code).JSON(fiber.Map{"message": err.Error()})
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", metrics.Handler())

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	petSvc := pet.NewService(s.DB)
	petMiddleware := pet.Middleware(petSvc)
	postSvc := post.NewService(s.DB)
	activitySvc := activity.NewService(s.DB)
	friendSvc := friend.NewService(s.DB)

	walkSvc := walk.NewService(s.DB, walk.Dependencies{
		Posts:      postSvc,
		Activities: activitySvc,
		Friends:    friendSvc,
		Pets:       petSvc,
		Hub:        s.Stream,
	})

	walk.RegisterRoutes(s.App.Group("/walks"), walkSvc, jwtMiddleware, petMiddleware, s.limiter.Handler())
	friend.RegisterRoutes(s.App.Group("/friends"), friendSvc, jwtMiddleware, petMiddleware)
	post.RegisterRoutes(s.App.Group("/posts"), postSvc, jwtMiddleware)
	activity.RegisterRoutes(s.App.Group("/activities"), activitySvc, jwtMiddleware, petMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, jwtMiddleware)

	objects, err := storage.NewS3Store(context.Background(), storage.S3Config{
		Endpoint:  s.Cfg.StorageEndpoint,
		Bucket:    s.Cfg.StorageBucket,
		Region:    s.Cfg.StorageRegion,
		AccessKey: s.Cfg.StorageAccessKey,
		SecretKey: s.Cfg.StorageSecretKey,
	})
	if err != nil {
		s.log.WithError(err).Error("object storage unavailable, uploads disabled")
	} else {
		storage.RegisterRoutes(s.App.Group("/upload"), storage.NewService(s.DB, objects), jwtMiddleware)
	}

	if _, err := s.jobs.AddFunc("@every 10m", func() {
		if n := s.limiter.Cleanup(limiterIdle); n > 0 {
			s.log.WithField("count", n).Debug("dropped idle rate limiters")
		}
	}); err != nil {
		s.log.WithError(err).Error("schedule limiter cleanup")
	}

	if s.DB == nil {
		return
	}
	reaper, err := walk.NewReaper(walkSvc, s.Cfg.WalkReaperSchedule, s.Cfg.WalkStaleAfter)
	if err != nil {
		s.log.WithError(err).WithField("schedule", s.Cfg.WalkReaperSchedule).Error("stale walk reaper disabled")
		return
	}
	s.Reaper = reaper
}

// StartJobs starts the background schedules.
func (s *Server) StartJobs() {
	s.jobs.Start()
	if s.Reaper != nil {
		s.Reaper.Start()
	}
}

// Close stops the background schedules and the stream hub.
func (s *Server) Close(ctx context.Context) {
	select {
	case <-s.jobs.Stop().Done():
	case <-ctx.Done():
	}
	if s.Reaper != nil {
		s.Reaper.Stop(ctx)
	}
	if err := s.Stream.Close(); err != nil {
		s.log.WithError(err).Warn("close stream hub")
	}
}
