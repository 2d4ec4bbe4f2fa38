package middleware

import (
	"time"

	"quiz-lens/internal/util"

	"github.com/gofiber/fiber/v2"
)

const sessionIDKey = "session_id"

// Session identifies the browser session by a ULID cookie, issuing a new one
// when the cookie is missing or malformed. The cookie is refreshed on every
// request so that it expires together with the stored state.
func Session(cookieName string, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Cookies(cookieName)
		if !util.IsULID(id) {
			id = util.NewULID()
		}
		c.Cookie(&fiber.Cookie{
			Name:     cookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(ttl.Seconds()),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		c.Locals(sessionIDKey, id)
		return c.Next()
	}
}

// SessionID returns the id set by Session.
func SessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(sessionIDKey).(string)
	return id
}
