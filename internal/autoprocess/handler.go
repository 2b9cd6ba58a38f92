package autoprocess

import (
	"errors"
	"net/http"
	"strconv"

	"gymdesk/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

func gymIDParam(c *gin.Context) (int, bool) {
	gymID, err := strconv.Atoi(c.Param("gymID"))
	if err != nil || gymID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid gym ID"})
		return 0, false
	}
	return gymID, true
}

// @Summary      Get auto-process settings
// @Description  Owner-only: current auto-accept / auto-cancel policy for a gym (defaults when none is stored)
// @Tags         auto-process
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path int true "Gym ID"
// @Success      200 {object} autoprocess.Policy
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /gyms/{gymID}/auto-process/settings [get]
func (h *Handler) GetSettings(c *gin.Context) {
	gymID, ok := gymIDParam(c)
	if !ok {
		return
	}

	policy, err := h.service.GetPolicy(c.Request.Context(), gymID)
	if err != nil {
		if errors.Is(err, ErrInvalidPolicy) {
			c.JSON(http.StatusOK, DefaultPolicy())
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load auto-process settings"})
		return
	}

	c.JSON(http.StatusOK, policy)
}

// @Summary      Update auto-process settings
// @Tags         auto-process
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path int true "Gym ID"
// @Param        request body autoprocess.Policy true "Policy"
// @Success      200 {object} autoprocess.Policy
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /gyms/{gymID}/auto-process/settings [put]
func (h *Handler) UpdateSettings(c *gin.Context) {
	gymID, ok := gymIDParam(c)
	if !ok {
		return
	}

	policy := DefaultPolicy()
	if err := c.ShouldBindJSON(&policy); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.service.SavePolicy(c.Request.Context(), gymID, policy); err != nil {
		if errors.Is(err, ErrInvalidPolicy) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to save auto-process settings"})
		return
	}

	c.JSON(http.StatusOK, normalize(policy))
}

// @Summary      Run auto-processing now
// @Description  Owner-only: evaluate pending bookings of the gym and confirm or cancel them per policy
// @Tags         auto-process
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path int true "Gym ID"
// @Success      200 {object} autoprocess.Result
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      409 {object} autoprocess.Result
// @Failure      429 {object} api.ErrorResponse
// @Failure      500 {object} autoprocess.Result
// @Router       /gyms/{gymID}/auto-process/run [post]
func (h *Handler) Run(c *gin.Context) {
	gymID, ok := gymIDParam(c)
	if !ok {
		return
	}

	res := h.service.ProcessSchedulesAutomatically(c.Request.Context(), gymID)

	switch {
	case errors.Is(res.Err(), ErrRunInProgress):
		c.JSON(http.StatusConflict, res)
	case res.Err() != nil:
		c.JSON(http.StatusInternalServerError, res)
	default:
		// Per-row failures still yield 200; they are listed in the body.
		c.JSON(http.StatusOK, res)
	}
}

// @Summary      Preview auto-processing
// @Description  Owner-only: what a run would do right now, without changing anything
// @Tags         auto-process
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path int true "Gym ID"
// @Success      200 {array} autoprocess.Decision
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /gyms/{gymID}/auto-process/preview [get]
func (h *Handler) Preview(c *gin.Context) {
	gymID, ok := gymIDParam(c)
	if !ok {
		return
	}

	decisions, err := h.service.Preview(c.Request.Context(), gymID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to preview auto-processing"})
		return
	}

	c.JSON(http.StatusOK, decisions)
}
