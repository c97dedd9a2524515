package api

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/AbhishekX2004/LearnatoForum/internal/model"
	"github.com/AbhishekX2004/LearnatoForum/internal/service"
)

const (
	stateCookie = "oauth_state"
	stateTTL    = 10 * time.Minute
)

type AuthHandler struct {
	authService service.AuthService
	validate    *validator.Validate
	frontendURL string
	secure      bool
}

// NewAuthHandler serves the Google sign-in flow. Cookies are marked Secure
// when secure is set.
func NewAuthHandler(authService service.AuthService, frontendURL string, secure bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
		frontendURL: frontendURL,
		secure:      secure,
	}
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type sessionUser struct {
	ID          uuid.UUID  `json:"_id"`
	DisplayName string     `json:"displayName"`
	Avatar      *string    `json:"avatar"`
	Role        model.Role `json:"role"`
}

func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	state := uuid.NewString()
	h.setCookie(c, stateCookie, state, time.Now().Add(stateTTL))
	return c.Redirect(h.authService.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	expected := c.Cookies(stateCookie)
	h.clearCookie(c, stateCookie)

	state, code := c.Query("state"), c.Query("code")
	if expected == "" || state != expected || code == "" {
		slog.WarnContext(c.UserContext(), "oauth callback rejected", "has_code", code != "", "state_match", state == expected)
		return c.Redirect(h.frontendURL+"/login", fiber.StatusTemporaryRedirect)
	}

	sess, err := h.authService.LoginWithGoogle(c.UserContext(), code)
	if err != nil {
		slog.ErrorContext(c.UserContext(), "google login failed", "error", err)
		return c.Redirect(h.frontendURL+"/login", fiber.StatusTemporaryRedirect)
	}

	h.setCookie(c, sessionCookie, sess.Token, sess.ExpiresAt)

	if sess.User.Role == model.RoleUnset {
		return c.Redirect(h.frontendURL+"/select-role", fiber.StatusTemporaryRedirect)
	}
	return c.Redirect(h.frontendURL+"/", fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) SetRole(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	var req SetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	sess, err := h.authService.SetRole(c.UserContext(), actor.UserID, req.Role)
	if err != nil {
		return respondError(c, err)
	}

	h.setCookie(c, sessionCookie, sess.Token, sess.ExpiresAt)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Role set successfully.",
		"user": sessionUser{
			ID:          sess.User.ID,
			DisplayName: sess.User.DisplayName,
			Avatar:      sess.User.AvatarURL,
			Role:        sess.User.Role,
		},
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	user, err := h.authService.Me(c.UserContext(), actor.UserID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), c.Cookies(sessionCookie)); err != nil {
		slog.ErrorContext(c.UserContext(), "token revocation failed", "error", err)
	}
	h.clearCookie(c, sessionCookie)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) setCookie(c *fiber.Ctx, name, value string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
