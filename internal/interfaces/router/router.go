package router

import (
	"errors"

	authsvc "homesocial-backend/internal/application/auth"
	commentsvc "homesocial-backend/internal/application/comments"
	emailsvc "homesocial-backend/internal/application/emails"
	feedsvc "homesocial-backend/internal/application/feed"
	lesvc "homesocial-backend/internal/application/listingevents"
	listsvc "homesocial-backend/internal/application/listings"
	"homesocial-backend/internal/application/messaging"
	profilesvc "homesocial-backend/internal/application/profiles"
	uploadsvc "homesocial-backend/internal/application/uploads"
	"homesocial-backend/internal/config"
	"homesocial-backend/internal/infrastructure/database"
	authhandler "homesocial-backend/internal/interfaces/handlers/auth"
	commenthandler "homesocial-backend/internal/interfaces/handlers/comments"
	feedhandler "homesocial-backend/internal/interfaces/handlers/feed"
	healthhandler "homesocial-backend/internal/interfaces/handlers/health"
	listhandler "homesocial-backend/internal/interfaces/handlers/listings"
	profilehandler "homesocial-backend/internal/interfaces/handlers/profiles"
	threadhandler "homesocial-backend/internal/interfaces/handlers/threads"
	uploadhandler "homesocial-backend/internal/interfaces/handlers/uploads"
	"homesocial-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Deps are the external resources the routes run against.
type Deps struct {
	DB      *gorm.DB
	Rdb     *redis.Client
	Storage uploadsvc.StorageClient
	Emails  emailsvc.Sender
	Config  *config.Config
}

// NewApp returns a Fiber app with the shared settings and no routes.
func NewApp(cfg *config.Config) *fiber.App {
	bodyLimit := cfg.MaxUploadMB * 1024 * 1024
	if bodyLimit <= 0 {
		bodyLimit = 100 * 1024 * 1024
	}
	return fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		BodyLimit:               bodyLimit,
	})
}

// CreateApp connects to Postgres and Redis and returns the fully routed app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, nil, errors.New("database URL is not set (DATABASE_URL_DEV/TEST/PROD or DATABASE_URL)")
	}
	if cfg.RedisURL == "" {
		return nil, nil, nil, errors.New("REDIS_URL is not set")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	rdb := redis.NewClient(opt)

	var storage uploadsvc.StorageClient
	if cfg.SupabaseURL != "" && cfg.SupabaseSecretKey != "" {
		storage = &uploadsvc.SupabaseStorage{BaseURL: cfg.SupabaseURL, SecretKey: cfg.SupabaseSecretKey}
	} else {
		log.Warn().Msg("SUPABASE_URL/SUPABASE_SECRET_KEY not set: media is kept in memory")
		storage = uploadsvc.NewMemoryStorage()
	}

	var emails emailsvc.Sender
	if cfg.SendinblueAPIKey != "" {
		emails = &emailsvc.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom, AppBaseURL: cfg.AppBaseURL}
	}

	app := NewApp(cfg)
	Mount(app, Deps{DB: db, Rdb: rdb, Storage: storage, Emails: emails, Config: cfg})
	return app, db, rdb, nil
}

// Mount installs middleware and every route on app.
func Mount(app *fiber.App, d Deps) {
	cfg := d.Config
	sessionCfg := middleware.SessionConfig{
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}

	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.HealthMarker(d.Rdb))
	app.Use(middleware.Session(d.Rdb))

	hh := &healthhandler.Handlers{
		Rdb:            d.Rdb,
		DB:             &gormDBPinger{db: d.DB},
		HealthAdminKey: cfg.HealthAdminKey,
		Targets: map[string]string{
			"storage":  cfg.SupabaseURL,
			"frontend": cfg.AppBaseURL,
		},
	}
	app.Get("/", hh.JSON)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	uploads := &uploadsvc.Service{Storage: d.Storage, PhotoBucket: cfg.PhotoBucket, VideoBucket: cfg.VideoBucket}
	listings := &listsvc.Service{DB: d.DB, Uploads: uploads}
	comments := &commentsvc.Service{DB: d.DB}
	events := &lesvc.Service{DB: d.DB}
	feed := &feedsvc.Service{DB: d.DB}
	profiles := &profilesvc.Service{DB: d.DB}
	msgs := &messaging.Service{DB: d.DB, Hub: &messaging.Hub{Rdb: d.Rdb}, Emails: d.Emails}
	auth := &authsvc.Service{DB: d.DB, Emails: d.Emails}

	requireAuth := middleware.RequireAuth()
	api := app.Group("/api/v1")

	ah := &authhandler.Handlers{
		Service:    auth,
		UserFinder: &authsvc.GormUserFinder{DB: d.DB},
		Rdb:        d.Rdb,
		Config:     sessionCfg,
	}
	api.Post("/auth/signup", ah.Signup)
	api.Post("/auth/login", ah.Login)
	api.Get("/auth/session", ah.Session)
	api.Delete("/auth/logout", ah.Logout)
	api.Delete("/auth/sessions", requireAuth, ah.LogoutAll)

	fh := &feedhandler.Handlers{Service: feed}
	api.Get("/feed", fh.List)

	// Listing detail is public; everything else under /listings needs a session,
	// so auth is attached per route rather than on a group.
	lh := &listhandler.Handlers{Service: listings, Comments: comments, EventLog: events}
	ch := &commenthandler.Handlers{Service: comments}
	th := &threadhandler.Handlers{Service: msgs}
	api.Post("/listings", requireAuth, lh.Create)
	api.Get("/listings/mine", requireAuth, lh.Mine)
	api.Get("/listings/:id", lh.Detail)
	api.Get("/listings/:id/edit", requireAuth, lh.Edit)
	api.Put("/listings/:id", requireAuth, lh.Update)
	api.Post("/listings/:id/media", requireAuth, lh.AddMedia)
	api.Delete("/listings/:id/media", requireAuth, lh.RemoveMedia)
	api.Get("/listings/:id/events", requireAuth, lh.Events)
	api.Post("/listings/:id/comments", requireAuth, ch.Post)
	api.Post("/listings/:id/threads", requireAuth, th.Start)

	tg := api.Group("/threads", requireAuth)
	tg.Get("/", th.List)
	tg.Get("/:id/messages", th.Messages)
	tg.Post("/:id/messages", th.Send)
	tg.Get("/:id/stream", th.Stream)

	ph := &profilehandler.Handlers{Service: profiles, Rdb: d.Rdb}
	api.Get("/profile", requireAuth, ph.Get)
	api.Put("/profile", requireAuth, ph.Save)

	uph := &uploadhandler.Handlers{Service: uploads}
	api.Post("/uploads/sign", requireAuth, uph.Sign)
}
