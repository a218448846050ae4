// Package i18n holds the localized messages returned in error and status
// bodies, and negotiates the message language from Accept-Language.
package i18n

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Message keys.
const (
	AuthRequired            = "auth_required"
	InvalidToken            = "invalid_token"
	UnauthorizedUser        = "unauthorized_user"
	InsufficientPermissions = "insufficient_permissions"
	MissingFields           = "missing_fields"
	InvalidData             = "invalid_data"
	JSONParseError          = "json_parse_error"
	InternalServerError     = "internal_server_error"
	RateLimitExceeded       = "rate_limit_exceeded"
	RouteNotFound           = "route_not_found"
	InvalidCredentials      = "invalid_credentials"
	UserCreated             = "user_created"
	ProductCreated          = "product_created"
)

// placeholder is replaced by message arguments, left to right.
const placeholder = "%s"

// Catalog maps language tags to keyed message templates.
type Catalog struct {
	mu       sync.RWMutex
	fallback language.Tag
	messages map[language.Tag]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
}

// NewCatalog creates an empty catalog whose fallback language is fallback.
func NewCatalog(fallback language.Tag) *Catalog {
	c := &Catalog{
		fallback: fallback,
		messages: make(map[language.Tag]map[string]string),
	}
	c.rebuild()
	return c
}

// Default returns a catalog with the built-in Spanish and English messages.
// Spanish is the fallback.
func Default() *Catalog {
	c := NewCatalog(language.Spanish)
	c.Add(language.Spanish, map[string]string{
		AuthRequired:            "Token de autenticación requerido",
		InvalidToken:            "Token inválido",
		UnauthorizedUser:        "Usuario no autenticado",
		InsufficientPermissions: "Permisos insuficientes",
		MissingFields:           "Campos requeridos faltantes",
		InvalidData:             "Datos de petición inválidos",
		JSONParseError:          "JSON inválido en el body de la petición",
		InternalServerError:     "Error interno del servidor",
		RateLimitExceeded:       "Límite de peticiones excedido, intente en %s segundos",
		RouteNotFound:           "Ruta no encontrada",
		InvalidCredentials:      "Credenciales inválidas",
		UserCreated:             "Usuario creado exitosamente",
		ProductCreated:          "Producto creado exitosamente",
	})
	c.Add(language.English, map[string]string{
		AuthRequired:            "Authentication token required",
		InvalidToken:            "Invalid token",
		UnauthorizedUser:        "User not authenticated",
		InsufficientPermissions: "Insufficient permissions",
		MissingFields:           "Required fields are missing",
		InvalidData:             "Invalid request data",
		JSONParseError:          "Invalid JSON in the request body",
		InternalServerError:     "Internal server error",
		RateLimitExceeded:       "Rate limit exceeded, try again in %s seconds",
		RouteNotFound:           "Route not found",
		InvalidCredentials:      "Invalid credentials",
		UserCreated:             "User successfully created",
		ProductCreated:          "Product successfully created",
	})
	return c
}

// Add merges messages for tag into the catalog.
func (c *Catalog) Add(tag language.Tag, messages map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.messages[tag]
	if !ok {
		m = make(map[string]string, len(messages))
		c.messages[tag] = m
	}
	for k, v := range messages {
		m[k] = v
	}
	c.rebuild()
}

// rebuild refreshes the matcher. The fallback always comes first so it wins
// when nothing matches. Callers must hold c.mu.
func (c *Catalog) rebuild() {
	tags := []language.Tag{c.fallback}
	for tag := range c.messages {
		if tag != c.fallback {
			tags = append(tags, tag)
		}
	}
	c.tags = tags
	c.matcher = language.NewMatcher(tags)
}

// Fallback returns the fallback language.
func (c *Catalog) Fallback() language.Tag {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fallback
}

// SetFallback changes the fallback language.
func (c *Catalog) SetFallback(tag language.Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallback = tag
	c.rebuild()
}

// Negotiate picks the best supported language for an Accept-Language value.
func (c *Catalog) Negotiate(acceptLanguage string) language.Tag {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if strings.TrimSpace(acceptLanguage) == "" {
		return c.fallback
	}

	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return c.fallback
	}

	_, idx, conf := c.matcher.Match(prefs...)
	if conf == language.No {
		return c.fallback
	}
	return c.tags[idx]
}

// Message renders key in tag, replacing each %s with the next argument.
// Missing translations fall back to the fallback language and then to key.
func (c *Catalog) Message(tag language.Tag, key string, args ...string) string {
	c.mu.RLock()
	msg, ok := c.messages[tag][key]
	if !ok {
		msg, ok = c.messages[c.fallback][key]
	}
	c.mu.RUnlock()

	if !ok {
		return key
	}

	for _, arg := range args {
		msg = strings.Replace(msg, placeholder, arg, 1)
	}
	return msg
}

// Localizer binds a catalog to a negotiated language.
type Localizer struct {
	catalog *Catalog
	tag     language.Tag
}

// Localizer returns a Localizer for the given Accept-Language value.
func (c *Catalog) Localizer(acceptLanguage string) Localizer {
	return Localizer{catalog: c, tag: c.Negotiate(acceptLanguage)}
}

// Tag returns the negotiated language.
func (l Localizer) Tag() language.Tag {
	return l.tag
}

// T renders key in the negotiated language.
func (l Localizer) T(key string, args ...string) string {
	return l.catalog.Message(l.tag, key, args...)
}
