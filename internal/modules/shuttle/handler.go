package shuttle

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campusshuttle/internal/middleware"
	"campusshuttle/internal/pkg/response"
	"campusshuttle/internal/repository"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes splits shuttle endpoints across the public group (reads,
// so the schedule board needs no login) and the authenticated group.
func (h *Handler) RegisterRoutes(public, authed *gin.RouterGroup) {
	public.GET("/shuttles", h.List)
	public.GET("/shuttles/available", h.ListAvailable)
	public.GET("/shuttles/:id", h.GetByID)

	authed.POST("/shuttles", middleware.AdminOnly(), h.Create)
	authed.PATCH("/shuttles/:id/driver", middleware.AdminOnly(), h.AssignDriver)
	authed.PATCH("/shuttles/:id/availability", middleware.AdminOnly(), h.SetAvailability)
	authed.PATCH("/shuttles/:id/active", middleware.AdminOnly(), h.SetActive)
	authed.POST("/shuttles/:id/location", middleware.RequireRoles("driver"), h.UpdateLocation)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateShuttleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	details, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create shuttle")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"shuttle": details})
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list shuttles")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"shuttles": list, "results": len(list)})
}

func (h *Handler) ListAvailable(c *gin.Context) {
	list, err := h.service.ListAvailable(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list shuttles")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"shuttles": list, "results": len(list)})
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := shuttleID(c)
	if !ok {
		return
	}

	details, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrShuttleNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Shuttle not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get shuttle")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"shuttle": details})
}

func (h *Handler) AssignDriver(c *gin.Context) {
	id, ok := shuttleID(c)
	if !ok {
		return
	}

	var req AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	details, err := h.service.AssignDriver(c.Request.Context(), id, req.DriverID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrShuttleNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Shuttle not found")
		case errors.Is(err, ErrNotDriver):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "User is not a driver")
		case errors.Is(err, ErrDriverNotApproved):
			response.Error(c, http.StatusBadRequest, "STATE_CONFLICT", "Driver is not approved")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to assign driver")
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"shuttle": details})
}

func (h *Handler) SetAvailability(c *gin.Context) {
	id, ok := shuttleID(c)
	if !ok {
		return
	}

	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	details, err := h.service.SetAvailability(c.Request.Context(), id, *req.AvailableSeats)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrShuttleNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Shuttle not found")
		case errors.Is(err, ErrSeatsOutOfRange):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Available seats must be between 0 and capacity")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update availability")
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"shuttle": details})
}

func (h *Handler) SetActive(c *gin.Context) {
	id, ok := shuttleID(c)
	if !ok {
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	details, err := h.service.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		if errors.Is(err, repository.ErrShuttleNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Shuttle not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update shuttle")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"shuttle": details})
}

func (h *Handler) UpdateLocation(c *gin.Context) {
	id, ok := shuttleID(c)
	if !ok {
		return
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	driverID := c.GetInt64("user_id")

	if err := h.service.UpdateLocation(c.Request.Context(), id, driverID, req); err != nil {
		switch {
		case errors.Is(err, repository.ErrShuttleNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Shuttle not found")
		case errors.Is(err, ErrNotAssignedDriver):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "You are not assigned to this shuttle")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update location")
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

func shuttleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid shuttle ID")
		return 0, false
	}
	return id, true
}
