package handlers

import (
	"github.com/gin-gonic/gin"

	"lingua/internal/domain/locale"
	"lingua/internal/infrastructure/http/v1/dto"
)

// LocaleHandler serves the tenant's locale catalog. The registry is taken
// from the request context, where middleware.Locales installed it.
type LocaleHandler struct {
	*BaseHandler
}

// NewLocaleHandler creates a new locale handler.
func NewLocaleHandler(base *BaseHandler) *LocaleHandler {
	return &LocaleHandler{BaseHandler: base}
}

// RegisterRoutes registers the locale endpoints on rg.
func (h *LocaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/default", h.GetDefault)
	rg.PUT("/default", h.SetDefault)
	rg.GET("/:code", h.Get)
	rg.PATCH("/:code", h.Update)
	rg.DELETE("/:code", h.Delete)
}

func (h *LocaleHandler) service(c *gin.Context) (*locale.Service, bool) {
	registry, err := locale.RegistryFromContext(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return locale.NewService(registry), true
}

// List handles GET /locales
func (h *LocaleHandler) List(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	var req dto.CursorRequest
	if !h.BindQuery(c, &req) {
		return
	}
	req.Defaults()

	locales, err := svc.List(c.Request.Context(), locale.ListParams{
		Limit:   req.Limit,
		After:   req.After,
		Reverse: req.Sort == "desc",
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromLocales(locales, req.Limit))
}

// Create handles POST /locales
func (h *LocaleHandler) Create(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	var req dto.CreateLocaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	l, err := svc.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromLocale(*l))
}

// Get handles GET /locales/:code
func (h *LocaleHandler) Get(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	l, err := svc.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromLocale(*l))
}

// Update handles PATCH /locales/:code
func (h *LocaleHandler) Update(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	var req dto.UpdateLocaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	l, err := svc.Update(c.Request.Context(), c.Param("code"), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromLocale(*l))
}

// Delete handles DELETE /locales/:code
func (h *LocaleHandler) Delete(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	if err := svc.Delete(c.Request.Context(), c.Param("code")); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// GetDefault handles GET /locales/default
func (h *LocaleHandler) GetDefault(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	ptr, err := svc.GetDefault(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.DefaultLocaleResponse{Code: ptr.Code})
}

// SetDefault handles PUT /locales/default
func (h *LocaleHandler) SetDefault(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	var req dto.SetDefaultLocaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ptr, err := svc.SetDefault(c.Request.Context(), req.Code)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.DefaultLocaleResponse{Code: ptr.Code})
}
