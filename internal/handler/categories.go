package handler

import (
	"net/http"

	"supplytrack/internal/dto"
	"supplytrack/internal/service"

	"github.com/gin-gonic/gin"
)

// CategoriesHandler serves /v1/categories and /v1/lookups.
type CategoriesHandler struct {
	svc     service.CategoryService
	lookups service.LookupService
}

func NewCategoriesHandler(svc service.CategoryService, lookups service.LookupService) *CategoriesHandler {
	return &CategoriesHandler{svc: svc, lookups: lookups}
}

// Create godoc
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CategoryRequest true "Category"
// @Success 201 {object} dto.CategoryResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/categories [post]
func (h *CategoriesHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.CategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CategoriesHandler) List(c *gin.Context) {
	var filter dto.NameFilter
	if !bindQuery(c, &filter) {
		return
	}
	filter.Page = dto.ParsePage(c.Query("page"))
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CategoriesHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CategoriesHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary Delete a category
// @Description Rejected with 409 while any supply is in the category.
// @Tags categories
// @Security BearerAuth
// @Param id path string true "Category id"
// @Success 204
// @Failure 409 {object} apierror.ConflictError
// @Router /v1/categories/{id} [delete]
func (h *CategoriesHandler) Delete(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Lookups godoc
// @Summary Every category and tag, for filter dropdowns
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.LookupsResponse
// @Router /v1/lookups [get]
func (h *CategoriesHandler) Lookups(c *gin.Context) {
	resp, err := h.lookups.Lookups(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Tags Handler ─────────────────────────────────────────────────────────────

type TagsHandler struct{ svc service.TagService }

func NewTagsHandler(svc service.TagService) *TagsHandler { return &TagsHandler{svc: svc} }

func (h *TagsHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.TagRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *TagsHandler) List(c *gin.Context) {
	var filter dto.NameFilter
	if !bindQuery(c, &filter) {
		return
	}
	filter.Page = dto.ParsePage(c.Query("page"))
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TagsHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TagsHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.TagRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TagsHandler) Delete(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
