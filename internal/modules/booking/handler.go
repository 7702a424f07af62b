package booking

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campusshuttle/internal/domain"
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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", middleware.RequireRoles("student"), h.Create)
	rg.GET("/bookings", middleware.AdminOnly(), h.ListAll)

	rg.GET("/bookings/student", middleware.RequireRoles("student", "admin"), h.ListByStudent)
	rg.GET("/bookings/student/:studentId", middleware.RequireRoles("student", "admin"), h.ListByStudent)
	rg.GET("/bookings/driver", middleware.RequireRoles("driver", "admin"), h.ListByDriver)
	rg.GET("/bookings/driver/:driverId", middleware.RequireRoles("driver", "admin"), h.ListByDriver)

	rg.GET("/bookings/:id", h.GetByID)
	rg.PATCH("/bookings/:id/status", middleware.RequireRoles("driver", "admin"), h.UpdateStatus)
	rg.PATCH("/bookings/:id/rate", middleware.RequireRoles("student"), h.Rate)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	studentID := c.GetInt64("user_id")

	details, err := h.service.CreateBooking(c.Request.Context(), studentID, req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrShuttleNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Shuttle not found")
		case errors.Is(err, repository.ErrShuttleInactive):
			response.Error(c, http.StatusBadRequest, "STATE_CONFLICT", "Shuttle is not active")
		case errors.Is(err, repository.ErrNoSeats):
			response.Error(c, http.StatusBadRequest, "STATE_CONFLICT", "No available seats on this shuttle")
		case errors.Is(err, ErrNoDriver):
			response.Error(c, http.StatusBadRequest, "STATE_CONFLICT", "Shuttle has no assigned driver")
		case errors.Is(err, ErrTripTimePast):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Trip time must be in the future")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create booking")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"booking": details})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	status := domain.BookingStatus(req.Status)
	if !status.Valid() {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid status")
		return
	}

	details, err := h.service.UpdateBookingStatus(c.Request.Context(), id, status)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		case errors.Is(err, domain.ErrSameStatus):
			response.Error(c, http.StatusBadRequest, "STATE_CONFLICT",
				fmt.Sprintf("Booking status is already %s", status))
		case errors.Is(err, domain.ErrInvalidTransition):
			response.Error(c, http.StatusBadRequest, "STATE_CONFLICT", "Invalid status transition")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update booking")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"booking": details})
}

func (h *Handler) Rate(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req RateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	requesterID := c.GetInt64("user_id")

	details, err := h.service.AddBookingRating(c.Request.Context(), id, requesterID, req.Rating, req.Feedback)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		case errors.Is(err, ErrRatingRange):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Rating must be between 1 and 5")
		case errors.Is(err, ErrNotCompleted):
			response.Error(c, http.StatusBadRequest, "STATE_CONFLICT", "You can only rate completed trips")
		case errors.Is(err, ErrAlreadyRated):
			response.Error(c, http.StatusBadRequest, "STATE_CONFLICT", "Booking has already been rated")
		case errors.Is(err, ErrNotOwner):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "You can only rate your own bookings")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to rate booking")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"booking": details})
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	details, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get booking")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"booking": details})
}

func (h *Handler) ListAll(c *gin.Context) {
	list, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list bookings")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list, "results": len(list)})
}

func (h *Handler) ListByStudent(c *gin.Context) {
	studentID := c.GetInt64("user_id")
	if raw := c.Param("studentId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid student ID")
			return
		}
		studentID = parsed
	}

	list, err := h.service.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list bookings")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list, "results": len(list)})
}

func (h *Handler) ListByDriver(c *gin.Context) {
	driverID := c.GetInt64("user_id")
	if raw := c.Param("driverId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid driver ID")
			return
		}
		driverID = parsed
	}

	list, err := h.service.ListByDriver(c.Request.Context(), driverID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list bookings")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list, "results": len(list)})
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking ID")
		return 0, false
	}
	return id, true
}
