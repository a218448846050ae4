package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RodolfoParada/middleware-express/internal/i18n"
	"github.com/RodolfoParada/middleware-express/internal/middleware"
)

// Demo credentials accepted by the login route.
const (
	demoEmail    = "admin@example.com"
	demoPassword = "admin123"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type createUserRequest struct {
	Nombre string `json:"nombre" binding:"required,min=3"`
	Email  string `json:"email" binding:"required,email"`
	Activo *bool  `json:"activo"`
}

type createProductRequest struct {
	Nombre    string  `json:"nombre" binding:"required,min=3"`
	Precio    float64 `json:"precio" binding:"required,gt=0"`
	Categoria string  `json:"categoria" binding:"required"`
	Stock     *int    `json:"stock" binding:"omitempty,min=0"`
}

// routeSummaries is returned by the info route and as 404 suggestions.
var routeSummaries = []string{
	"GET /",
	"POST /auth/login",
	"GET /api/usuarios",
	"POST /api/usuarios",
	"GET /api/productos",
	"POST /api/productos",
	"GET /health",
}

type handlers struct {
	store     *Store
	token     string
	startTime time.Time
}

func (h *handlers) info(c *gin.Context) {
	middleware.JSON(c, http.StatusOK, gin.H{
		"mensaje":   "API con middleware de rate limiting, caché e internacionalización",
		"version":   "1.0.0",
		"endpoints": routeSummaries,
		"timestamp": middleware.Timestamp(c),
	})
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Email != demoEmail || req.Password != demoPassword {
		middleware.AbortWithMessage(c, http.StatusUnauthorized, i18n.InvalidCredentials)
		return
	}

	middleware.JSON(c, http.StatusOK, gin.H{
		"token":     h.token,
		"usuario":   adminPrincipal,
		"timestamp": middleware.Timestamp(c),
	})
}

func (h *handlers) listUsers(c *gin.Context) {
	users := h.store.Users()
	middleware.JSON(c, http.StatusOK, gin.H{
		"usuarios":  users,
		"total":     len(users),
		"timestamp": middleware.Timestamp(c),
	})
}

func (h *handlers) createUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}

	activo := true
	if req.Activo != nil {
		activo = *req.Activo
	}

	user := h.store.AddUser(User{
		Nombre:        req.Nombre,
		Email:         req.Email,
		Activo:        activo,
		FechaCreacion: middleware.Timestamp(c),
	})

	middleware.JSON(c, http.StatusCreated, gin.H{
		"mensaje":   middleware.T(c, i18n.UserCreated),
		"usuario":   user,
		"timestamp": middleware.Timestamp(c),
	})
}

func (h *handlers) listProducts(c *gin.Context) {
	filter := ProductFilter{Categoria: c.Query("categoria")}
	if v, err := strconv.ParseFloat(c.Query("precioMin"), 64); err == nil {
		filter.PrecioMin = &v
	}
	if v, err := strconv.ParseFloat(c.Query("precioMax"), 64); err == nil {
		filter.PrecioMax = &v
	}

	products := h.store.Products(filter)
	middleware.JSON(c, http.StatusOK, gin.H{
		"productos": products,
		"total":     len(products),
		"filtros":   queryFilters(c),
		"timestamp": middleware.Timestamp(c),
	})
}

// queryFilters echoes the query string, using a plain string for single
// values and a list for repeated ones.
func queryFilters(c *gin.Context) map[string]any {
	query := c.Request.URL.Query()
	out := make(map[string]any, len(query))
	for k, v := range query {
		if len(v) == 1 {
			out[k] = v[0]
		} else {
			out[k] = v
		}
	}
	return out
}

func (h *handlers) createProduct(c *gin.Context) {
	var req createProductRequest
	if !bindJSON(c, &req) {
		return
	}

	stock := 0
	if req.Stock != nil {
		stock = *req.Stock
	}

	product := h.store.AddProduct(Product{
		Nombre:        req.Nombre,
		Precio:        req.Precio,
		Categoria:     req.Categoria,
		Stock:         stock,
		FechaCreacion: middleware.Timestamp(c),
	})

	middleware.JSON(c, http.StatusCreated, gin.H{
		"mensaje":   middleware.T(c, i18n.ProductCreated),
		"producto":  product,
		"timestamp": middleware.Timestamp(c),
	})
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
		"timestamp": middleware.Timestamp(c),
	})
}

func (h *handlers) notFound(c *gin.Context) {
	middleware.JSON(c, http.StatusNotFound, gin.H{
		"error":       middleware.T(c, i18n.RouteNotFound),
		"timestamp":   middleware.Timestamp(c),
		"sugerencias": routeSummaries,
	})
}
