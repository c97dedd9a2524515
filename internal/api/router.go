package api

import (
	"time"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AbhishekX2004/LearnatoForum/internal/service"
)

type AppOptions struct {
	ServiceName         string
	CORSOrigin          string
	RateLimitMax        int
	RateLimitExpiration time.Duration
}

type Handlers struct {
	Auth   *AuthHandler
	Posts  *PostHandler
	Search *SearchHandler
	Users  *UserHandler
}

// NewApp builds the fiber app with the shared middleware stack and the
// health and metrics endpoints.
func NewApp(opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{AppName: opts.ServiceName})

	app.Use(recover.New())
	app.Use(otelfiber.Middleware())
	app.Use(PrometheusMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     opts.CORSOrigin,
		AllowCredentials: true,
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	if opts.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimitMax,
			Expiration: opts.RateLimitExpiration,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Too many request, please try again later.",
				})
			},
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": opts.ServiceName})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return app
}

func SetupRoutes(app *fiber.App, auth service.AuthService, h Handlers) {
	requireAuth := RequireAuth(auth)
	optionalAuth := OptionalAuth(auth)

	authRoutes := app.Group("/auth")
	authRoutes.Get("/google", h.Auth.GoogleLogin)
	authRoutes.Get("/google/callback", h.Auth.GoogleCallback)
	authRoutes.Post("/set-role", requireAuth, h.Auth.SetRole)
	authRoutes.Get("/me", requireAuth, h.Auth.Me)
	authRoutes.Post("/logout", h.Auth.Logout)

	apiRoutes := app.Group("/api")

	posts := apiRoutes.Group("/posts")
	posts.Get("/", optionalAuth, h.Posts.ListPosts)
	posts.Post("/", requireAuth, h.Posts.CreatePost)
	posts.Get("/:id", optionalAuth, h.Posts.GetPost)
	posts.Delete("/:id", requireAuth, h.Posts.DeletePost)
	posts.Post("/:id/reply", requireAuth, h.Posts.AddReply)
	posts.Post("/:id/upvote", requireAuth, h.Posts.ToggleUpvote)
	posts.Patch("/:id/answer", requireAuth, h.Posts.MarkAnswered)

	apiRoutes.Get("/search", optionalAuth, h.Search.Search)

	users := apiRoutes.Group("/users")
	users.Get("/me/upvoted-posts", requireAuth, h.Users.ListUpvotedPosts)
	users.Patch("/me", requireAuth, h.Users.UpdateProfile)
	users.Post("/me/avatar/upload-url", requireAuth, h.Users.GetAvatarUploadURL)
	users.Post("/me/device-token", requireAuth, h.Users.RegisterDeviceToken)
	users.Get("/:id", h.Users.GetProfile)
	users.Get("/:id/posts", optionalAuth, h.Users.ListUserPosts)
}
