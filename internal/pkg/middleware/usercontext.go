package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MarcoWillems/Galleria/internal/pkg/session"
	"github.com/MarcoWillems/Galleria/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request.
// This centralizes user session handling and eliminates code duplication.
func UserContextMiddleware(c *fiber.Ctx) error {
	anonymous := func() error {
		c.Locals("USER_CONTEXT", usercontext.UserContext{
			IsLoggedIn: false,
			IsAdmin:    false,
		})
		c.Locals(usercontext.KeyFromProtected, false)
		c.Locals(usercontext.KeyIsAdmin, false)
		return c.Next()
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		// On error: treat as anonymous user
		return anonymous()
	}

	userID, ok := sess.Get(usercontext.KeyUserID).(uint)
	if !ok || userID == 0 {
		// Anonymous user - no session data
		return anonymous()
	}

	username, _ := sess.Get(usercontext.KeyUsername).(string)
	isAdmin, _ := sess.Get(usercontext.KeyIsAdmin).(bool)

	c.Locals("USER_CONTEXT", usercontext.UserContext{
		UserID:     userID,
		Username:   username,
		IsLoggedIn: true,
		IsAdmin:    isAdmin,
	})
	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUserID, userID)
	c.Locals(usercontext.KeyUsername, username)
	c.Locals(usercontext.KeyIsAdmin, isAdmin)

	return c.Next()
}
