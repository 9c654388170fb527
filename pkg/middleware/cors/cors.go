package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const allowedHeaders = "Authorization, Content-Type, X-Requested-With, X-Request-ID"

// New returns a CORS middleware honoring a list of allowed origins. An empty list allows
// any origin, which is only meant for development; the public request page and the staff
// console are normally served from configured origins.
func New(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originSet[normalize(origin)] = struct{}{}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		origin := c.GetHeader("Origin")
		switch {
		case origin != "" && (allowAll || hasOrigin(originSet, origin)):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		case origin == "" && allowAll:
			h.Set("Access-Control-Allow-Origin", "*")
		}

		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Headers", allowedHeaders)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
		h.Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}

func hasOrigin(originSet map[string]struct{}, origin string) bool {
	_, ok := originSet[normalize(origin)]
	return ok
}
