package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	request "construction_estimator/internal/adapter/http/dto/request"
	response "construction_estimator/internal/adapter/http/dto/response"
	"construction_estimator/internal/domain/entities"
	"construction_estimator/internal/domain/pricing"
	"construction_estimator/internal/logger"
	"construction_estimator/internal/usecase"
	"construction_estimator/pkg"

	"github.com/gin-gonic/gin"
)

const (
	formFieldFiles       = "files"
	formFieldProjectName = "project_name"

	MaxUploadFiles     = 20
	MaxUploadFileBytes = 25 << 20
)

var (
	errInvalidRoomsPayload    = pkg.NewDomainErrorSimple("INVALID_ROOMS_INPUT", "Invalid rooms payload", http.StatusBadRequest)
	errInvalidRevisionPayload = pkg.NewDomainErrorSimple("INVALID_REVISION_INPUT", "Invalid revision payload", http.StatusBadRequest)
	errInvalidEstimateID      = pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid estimate id", http.StatusBadRequest)
	errInvalidLimit           = pkg.NewDomainErrorSimple("INVALID_REQUEST", "limit must be a positive integer", http.StatusBadRequest)
	errNoPlanFiles            = pkg.NewDomainErrorSimple("NO_FILES", "At least one plan file is required in the 'files' field", http.StatusBadRequest)
	errTooManyPlanFiles       = pkg.NewDomainErrorSimple("TOO_MANY_FILES", "Too many plan files", http.StatusBadRequest)
	errPlanFileTooLarge       = pkg.NewDomainErrorSimple("FILE_TOO_LARGE", "Plan file exceeds the upload limit", http.StatusRequestEntityTooLarge)
)

// EstimateHandler exposes the estimate lifecycle over HTTP.
type EstimateHandler struct {
	usecase usecase.IEstimateUseCase
}

func NewEstimateHandler(uc usecase.IEstimateUseCase) *EstimateHandler {
	return &EstimateHandler{usecase: uc}
}

// UploadPlans godoc
// @Summary      Draft an estimate from plan files
// @Description  Extracts text and drawings from the uploaded plans and drafts an estimate. Falls back to a rate-table or placeholder estimate when the AI service is unavailable.
// @Tags         estimates
// @Accept       multipart/form-data
// @Produce      json
// @Param        files         formData  file    true   "Plan files (PDF, image, text, HTML)"
// @Param        project_name  formData  string  false  "Project name"
// @Success      201  {object}  response.EstimateResponse
// @Failure      400  {object}  pkg.HTTPError
// @Failure      413  {object}  pkg.HTTPError
// @Failure      500  {object}  pkg.HTTPError
// @Router       /estimates/plans [post]
func (h *EstimateHandler) UploadPlans(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(errNoPlanFiles.HTTPStatus, errNoPlanFiles.ToHTTPError())
		return
	}
	files := form.File[formFieldFiles]
	if len(files) == 0 {
		c.JSON(errNoPlanFiles.HTTPStatus, errNoPlanFiles.ToHTTPError())
		return
	}
	if len(files) > MaxUploadFiles {
		c.JSON(errTooManyPlanFiles.HTTPStatus, errTooManyPlanFiles.ToHTTPError())
		return
	}

	docs := make([]entities.Document, 0, len(files))
	for _, fh := range files {
		if fh.Size > MaxUploadFileBytes {
			c.JSON(errPlanFileTooLarge.HTTPStatus, errPlanFileTooLarge.ToHTTPError())
			return
		}
		f, err := fh.Open()
		if err != nil {
			appErr := pkg.NewDomainError("INVALID_UPLOAD", "Could not read uploaded file", err, http.StatusBadRequest)
			c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, MaxUploadFileBytes))
		f.Close()
		if err != nil {
			appErr := pkg.NewDomainError("INVALID_UPLOAD", "Could not read uploaded file", err, http.StatusBadRequest)
			c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}
		docs = append(docs, entities.Document{Name: fh.Filename, Data: data})
	}

	estimate, err := h.usecase.StartFromDocuments(c.Request.Context(), c.PostForm(formFieldProjectName), docs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.FromEstimate(estimate))
}

// CreateFromRooms godoc
// @Summary      Price an explicit room list
// @Tags         estimates
// @Accept       json
// @Produce      json
// @Param        payload  body      request.RoomsRequest  true  "Rooms"
// @Success      201      {object}  response.EstimateResponse
// @Failure      400      {object}  pkg.HTTPError
// @Failure      500      {object}  pkg.HTTPError
// @Router       /estimates [post]
func (h *EstimateHandler) CreateFromRooms(c *gin.Context) {
	var payload request.RoomsRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidRoomsPayload.HTTPStatus, errInvalidRoomsPayload.ToHTTPError())
		return
	}
	rooms, err := payload.ResolveRooms()
	if err != nil {
		h.writeError(c, err)
		return
	}

	estimate, err := h.usecase.StartFromRooms(c.Request.Context(), payload.ProjectName, rooms)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.FromEstimate(estimate))
}

// Revise godoc
// @Summary      Revise an estimate with client answers
// @Description  Returns the unchanged estimate when the AI service is unavailable.
// @Tags         estimates
// @Accept       json
// @Produce      json
// @Param        id       path      int                      true  "Estimate ID"
// @Param        payload  body      request.RevisionRequest  true  "Answers and instructions"
// @Success      200      {object}  response.EstimateResponse
// @Failure      400      {object}  pkg.HTTPError
// @Failure      404      {object}  pkg.HTTPError
// @Failure      500      {object}  pkg.HTTPError
// @Router       /estimates/{id}/revisions [post]
func (h *EstimateHandler) Revise(c *gin.Context) {
	id, ok := h.estimateID(c)
	if !ok {
		return
	}
	var payload request.RevisionRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidRevisionPayload.HTTPStatus, errInvalidRevisionPayload.ToHTTPError())
		return
	}

	estimate, err := h.usecase.Revise(c.Request.Context(), id, payload.ResolveInput())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromEstimate(estimate))
}

// GetEstimate godoc
// @Summary      Get an estimate
// @Tags         estimates
// @Produce      json
// @Param        id   path      int  true  "Estimate ID"
// @Success      200  {object}  response.EstimateResponse
// @Failure      404  {object}  pkg.HTTPError
// @Router       /estimates/{id} [get]
func (h *EstimateHandler) GetEstimate(c *gin.Context) {
	id, ok := h.estimateID(c)
	if !ok {
		return
	}
	estimate, err := h.usecase.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromEstimate(estimate))
}

// GetStatus godoc
// @Summary      Get estimate status, assumptions and open questions
// @Tags         estimates
// @Produce      json
// @Param        id   path      int  true  "Estimate ID"
// @Success      200  {object}  response.StatusResponse
// @Failure      404  {object}  pkg.HTTPError
// @Router       /estimates/{id}/status [get]
func (h *EstimateHandler) GetStatus(c *gin.Context) {
	id, ok := h.estimateID(c)
	if !ok {
		return
	}
	view, err := h.usecase.GetStatus(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromStatusView(view))
}

// ListChanges godoc
// @Summary      List the revision log of an estimate
// @Tags         estimates
// @Produce      json
// @Param        id   path      int  true  "Estimate ID"
// @Success      200  {array}   response.ChangeResponse
// @Failure      404  {object}  pkg.HTTPError
// @Router       /estimates/{id}/changes [get]
func (h *EstimateHandler) ListChanges(c *gin.Context) {
	id, ok := h.estimateID(c)
	if !ok {
		return
	}
	changes, err := h.usecase.ListChanges(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromChanges(changes))
}

// ListEstimates godoc
// @Summary      List recent estimates
// @Tags         estimates
// @Produce      json
// @Param        limit  query     int  false  "Max results (default 20, max 100)"
// @Success      200    {array}   response.SummaryResponse
// @Failure      400    {object}  pkg.HTTPError
// @Router       /estimates [get]
func (h *EstimateHandler) ListEstimates(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(errInvalidLimit.HTTPStatus, errInvalidLimit.ToHTTPError())
			return
		}
		limit = n
	}
	list, err := h.usecase.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromEstimates(list))
}

func (h *EstimateHandler) estimateID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(errInvalidEstimateID.HTTPStatus, errInvalidEstimateID.ToHTTPError())
		return 0, false
	}
	return id, true
}

func (h *EstimateHandler) writeError(c *gin.Context, err error) {
	appErr := mapEstimateError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Log.Errorf("[estimate][http] %s %s failed err=%v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
}

func mapEstimateError(err error) *pkg.AppError {
	var vErr *pricing.ValidationError
	switch {
	case errors.As(err, &vErr):
		return pkg.NewDomainError("VALIDATION_ERROR", vErr.Error(), err, http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvalidEstimateID):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid estimate id", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrNoDocuments):
		return errNoPlanFiles
	case errors.Is(err, usecase.ErrEmptyRevisionInput):
		return pkg.NewDomainErrorSimple("INVALID_REVISION_INPUT", "Provide answers or instructions", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrEstimateNotFound):
		return pkg.NewDomainErrorSimple("ESTIMATE_NOT_FOUND", "Estimate not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrInvalidStatusTransition):
		return pkg.NewDomainError("INVALID_STATUS_TRANSITION", "Revision would move the estimate to an invalid status", err, http.StatusConflict)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
