package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/RodolfoParada/middleware-express/internal/i18n"
)

func TestLocalize(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "default spanish", want: "Ruta no encontrada"},
		{name: "english", header: "en-US,en;q=0.9", want: "Route not found"},
		{name: "unsupported falls back", header: "de", want: "Ruta no encontrada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string

			router := gin.New()
			router.Use(Localize(i18n.Default()))
			router.GET("/test", func(c *gin.Context) {
				got = T(c, i18n.RouteNotFound)
				c.Status(http.StatusOK)
			})

			var headers []string
			if tt.header != "" {
				headers = []string{HeaderAcceptLanguage, tt.header}
			}
			doRequest(router, http.MethodGet, "/test", "", nil, headers...)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetLocalizer_WithoutMiddleware(t *testing.T) {
	var tag language.Tag

	router := gin.New()
	router.GET("/test", func(c *gin.Context) {
		tag = GetLocalizer(c).Tag()
		c.Status(http.StatusOK)
	})

	doRequest(router, http.MethodGet, "/test", "", nil, HeaderAcceptLanguage, "en")

	assert.Equal(t, language.English, tag)
}
