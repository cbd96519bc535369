package handler

import (
	"bytes"
	"net/http"
	"path/filepath"

	"supplytrack/internal/apierror"
	"supplytrack/internal/dto"
	"supplytrack/internal/service"

	"github.com/gin-gonic/gin"
)

// maxImportSize bounds uploaded CSV files.
const maxImportSize = 5 << 20

type SuppliesHandler struct{ svc service.SupplyService }

func NewSuppliesHandler(svc service.SupplyService) *SuppliesHandler {
	return &SuppliesHandler{svc: svc}
}

// Create godoc
// @Summary Create a supply
// @Tags supplies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.SupplyRequest true "Supply"
// @Success 201 {object} dto.SupplyResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/supplies [post]
func (h *SuppliesHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.SupplyRequest
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

// List godoc
// @Summary List supplies
// @Tags supplies
// @Produce json
// @Security BearerAuth
// @Param category query string false "Category id"
// @Param tag query string false "Tag id"
// @Param location query string false "Location substring"
// @Param search query string false "Name or description substring"
// @Param page query int false "Page (1-based)"
// @Success 200 {object} dto.SupplyListResponse
// @Router /v1/supplies [get]
func (h *SuppliesHandler) List(c *gin.Context) {
	var filter dto.SupplyFilter
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

func (h *SuppliesHandler) LowStock(c *gin.Context) {
	resp, err := h.svc.LowStock(c.Request.Context(), dto.ParsePage(c.Query("page")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SuppliesHandler) Get(c *gin.Context) {
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

func (h *SuppliesHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.SupplyRequest
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

func (h *SuppliesHandler) Delete(c *gin.Context) {
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

// ImportForSupply godoc
// @Summary Apply quantity deltas from a CSV file to one supply
// @Tags supplies
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Supply id"
// @Param file formData file true "CSV file (header row, then rows with the delta in column 2)"
// @Success 200 {object} dto.ImportResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/supplies/{id}/import [post]
func (h *SuppliesHandler) ImportForSupply(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	name, data, ok := readUpload(c)
	if !ok {
		return
	}
	resp, err := h.svc.ImportForSupply(c.Request.Context(), actor, id, name, bytes.NewReader(data))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ImportBulk godoc
// @Summary Apply a Name,Delta CSV file to supplies matched by name
// @Tags supplies
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV file"
// @Success 200 {object} dto.ImportResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/supplies/import [post]
func (h *SuppliesHandler) ImportBulk(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	name, data, ok := readUpload(c)
	if !ok {
		return
	}
	resp, err := h.svc.ImportBulk(c.Request.Context(), actor, name, bytes.NewReader(data))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Export godoc
// @Summary Download every supply as CSV
// @Tags supplies
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file
// @Router /v1/supplies/export [get]
func (h *SuppliesHandler) Export(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if _, err := h.svc.ExportCSV(c.Request.Context(), actor, &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="supplies.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *SuppliesHandler) ImportTemplate(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.ImportTemplate(&buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="supply_import_template.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// readUpload reads the multipart "file" field. Only .csv files are accepted.
func readUpload(c *gin.Context) (string, []byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("A CSV file is required in the 'file' field"))
		return "", nil, false
	}
	name := filepath.Base(fh.Filename)
	if filepath.Ext(name) != ".csv" {
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{"file": "must be a .csv file"}))
		return "", nil, false
	}
	if fh.Size > maxImportSize {
		c.JSON(http.StatusRequestEntityTooLarge, apierror.New("CSV file too large"))
		return "", nil, false
	}
	f, err := fh.Open()
	if err != nil {
		_ = c.Error(err)
		return "", nil, false
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		_ = c.Error(err)
		return "", nil, false
	}
	return name, buf.Bytes(), true
}
