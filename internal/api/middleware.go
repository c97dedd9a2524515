package api

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AbhishekX2004/LearnatoForum/internal/jwt"
	"github.com/AbhishekX2004/LearnatoForum/internal/model"
	"github.com/AbhishekX2004/LearnatoForum/internal/service"
)

const (
	sessionCookie = "jwt"
	claimsKey     = "userClaims"
)

var (
	httpRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of http request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)
)

// RequireAuth rejects the request with 401 unless the jwt cookie holds a
// valid, unrevoked token.
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(sessionCookie)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
		}

		claims, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, jwtv5.ErrTokenExpired) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token has expired"})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// OptionalAuth resolves the caller when possible and otherwise continues
// anonymously.
func OptionalAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var claims *jwt.Claims
		if token := c.Cookies(sessionCookie); token != "" {
			parsed, err := auth.Authenticate(c.UserContext(), token)
			if err != nil {
				slog.DebugContext(c.UserContext(), "ignoring invalid session cookie", "error", err)
			} else {
				claims = parsed
			}
		}
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

func claimsFrom(c *fiber.Ctx) *jwt.Claims {
	claims, _ := c.Locals(claimsKey).(*jwt.Claims)
	return claims
}

// viewerID is the caller's id on optionally authenticated routes.
func viewerID(c *fiber.Ctx) *uuid.UUID {
	claims := claimsFrom(c)
	if claims == nil {
		return nil
	}
	id := claims.UserID
	return &id
}

func actorFrom(c *fiber.Ctx) (model.Actor, bool) {
	claims := claimsFrom(c)
	if claims == nil {
		return model.Actor{}, false
	}
	return model.Actor{UserID: claims.UserID, Role: claims.Role}, true
}

func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start).Seconds()
		statusCode := c.Response().StatusCode()

		if err != nil {
			var e *fiber.Error

			if errors.As(err, &e) {
				statusCode = e.Code
			} else {
				statusCode = fiber.StatusInternalServerError
			}
		}

		// Route patterns keep ids out of the label set.
		path := c.Route().Path
		statusStr := strconv.Itoa(statusCode)

		httpRequestTotal.WithLabelValues(c.Method(), path, statusStr).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), path, statusStr).Observe(duration)

		return err
	}
}
