package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"storefront-auth/internal/domain"
	"storefront-auth/internal/metrics"
	"storefront-auth/internal/service/session"
)

const sessionCtxKey = "session_record"

// readSession decodes the SessionData cookie into the request context. Absent
// or malformed cookies become the anonymous record; the services re-validate
// the token before trusting anything in it.
func readSession(guard *session.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := domain.AnonymousSession()
		cookie, err := c.Request.Cookie(session.CookieName)
		switch {
		case err != nil || cookie.Value == "":
			metrics.RecordSessionValidation("absent")
		default:
			decoded, ok := session.Decode(cookie.Value)
			if ok {
				_, ok = guard.Validate(decoded)
			}
			if ok {
				metrics.RecordSessionValidation("valid")
			} else {
				metrics.RecordSessionValidation("invalid")
			}
			rec = decoded
		}
		c.Set(sessionCtxKey, rec)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) domain.SessionRecord {
	if v, ok := c.Get(sessionCtxKey); ok {
		if rec, ok := v.(domain.SessionRecord); ok {
			return rec
		}
	}
	return domain.AnonymousSession()
}

// writeSession sets the cookie and echoes the record as JSON. The value is
// already query-escaped, so it goes through http.SetCookie untouched.
func (h *handlers) writeSession(c *gin.Context, rec domain.SessionRecord) {
	value, err := session.Encode(rec)
	if err != nil {
		h.fail(c, err)
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     session.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	c.JSON(http.StatusOK, rec)
}

func (h *handlers) clearSession(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func isCookieTooLarge(err error) bool {
	return errors.Is(err, session.ErrCookieTooLarge)
}
