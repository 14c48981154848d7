package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// visitorCookie is the long-lived cookie carrying the anonymous visitor ID
// that ties attribution state and stored events together.
const visitorCookie = "le_vid"

// visitorCookieMaxAge keeps the visitor ID for two years, matching how long
// first-touch attribution is expected to survive.
const visitorCookieMaxAge = 2 * 365 * 24 * 60 * 60

// contextVisitorID is the gin context key the handlers read.
const contextVisitorID = "visitorID"

// VisitorID middleware ensures every request carries a visitor identifier,
// minting one into a persistent cookie on first contact.
func VisitorID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(visitorCookie)
		if err != nil || id == "" {
			id = uuid.NewString()
			c.SetCookie(visitorCookie, id, visitorCookieMaxAge, "/", "", false, true)
		}
		c.Set(contextVisitorID, id)
		c.Next()
	}
}

// visitorID returns the request's visitor identifier set by the middleware.
func visitorID(c *gin.Context) string {
	return c.GetString(contextVisitorID)
}
