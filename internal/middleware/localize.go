package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/RodolfoParada/middleware-express/internal/i18n"
)

var defaultCatalog = i18n.Default()

// Localize returns a middleware that negotiates the response language from
// Accept-Language and stores a localizer on the context.
func Localize(catalog *i18n.Catalog) gin.HandlerFunc {
	if catalog == nil {
		catalog = defaultCatalog
	}

	return func(c *gin.Context) {
		c.Set(localizerKey, catalog.Localizer(c.GetHeader(HeaderAcceptLanguage)))
		c.Next()
	}
}

// GetLocalizer returns the localizer for the request. Without Localize it
// negotiates against the built-in catalog.
func GetLocalizer(c *gin.Context) i18n.Localizer {
	if v, exists := c.Get(localizerKey); exists {
		if l, ok := v.(i18n.Localizer); ok {
			return l
		}
	}
	return defaultCatalog.Localizer(c.GetHeader(HeaderAcceptLanguage))
}

// T renders the message key in the request language.
func T(c *gin.Context, key string, args ...string) string {
	return GetLocalizer(c).T(key, args...)
}
