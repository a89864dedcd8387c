package v1

import (
	"github.com/gin-gonic/gin"

	"lingua/internal/infrastructure/http/v1/handlers"
)

// registerLocaleRoutes registers the locale catalog endpoints.
func registerLocaleRoutes(rg *gin.RouterGroup) {
	handler := handlers.NewLocaleHandler(handlers.NewBaseHandler())
	handler.RegisterRoutes(rg.Group("/locales"))
}
