package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"studiobooking/internal/domain"
	"studiobooking/internal/middleware"
	"studiobooking/internal/pkg/response"
	"studiobooking/internal/pkg/validator"
	"studiobooking/internal/repository"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

/* ---------- ROUTE REGISTRATION ---------- */

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	studios := r.Group("/studios")
	{
		studios.GET("", h.GetStudios)        // GET /api/v1/studios?city=...
		studios.GET("/:id", h.GetStudioByID) // GET /api/v1/studios/:id
	}
	r.GET("/rooms/:id", h.GetRoomByID)
}

// RegisterProtectedRoutes expects JWTAuth to be applied on r already.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup, oc *middleware.OwnershipChecker) {
	owner := middleware.RequireRole(string(domain.RoleStudioOwner))

	studios := r.Group("/studios")
	{
		studios.POST("", owner, h.CreateStudio)
		studios.POST("/:id/rooms", owner, oc.CheckStudioOwnership(), h.CreateRoom)
		studios.POST("/:id/staff", owner, oc.CheckStudioOwnership(), h.AddStaff)
		studios.GET("/:id/staff", owner, oc.CheckStudioOwnership(), h.ListStaff)
	}
	r.POST("/rooms/:id/equipment", owner, oc.CheckRoomOwnership(), h.AddEquipment)
}

/* ---------- STUDIO HANDLERS ---------- */

func (h *Handler) GetStudios(c *gin.Context) {
	f := repository.StudioFilters{City: c.Query("city"), Limit: 20}

	if limit := c.Query("limit"); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil && val > 0 && val <= 100 {
			f.Limit = val
		}
	}
	if page := c.Query("page"); page != "" {
		if val, err := strconv.Atoi(page); err == nil && val > 0 {
			f.Offset = (val - 1) * f.Limit
		}
	}
	if owner := c.Query("owner_id"); owner != "" {
		if val, err := strconv.ParseInt(owner, 10, 64); err == nil {
			f.OwnerID = val
		}
	}

	studios, total, err := h.service.ListStudios(c.Request.Context(), f)
	if err != nil {
		handleError(c, err)
		return
	}

	totalPages := (int(total) + f.Limit - 1) / f.Limit
	response.Success(c, http.StatusOK, gin.H{
		"studios": studios,
		"pagination": gin.H{
			"page":        f.Offset/f.Limit + 1,
			"limit":       f.Limit,
			"total":       total,
			"total_pages": totalPages,
		},
	})
}

func (h *Handler) GetStudioByID(c *gin.Context) {
	id, ok := paramID(c, "Invalid studio ID")
	if !ok {
		return
	}
	studio, err := h.service.GetStudio(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"studio": studio})
}

func (h *Handler) CreateStudio(c *gin.Context) {
	var req CreateStudioRequest
	if !bind(c, &req) {
		return
	}
	studio, err := h.service.CreateStudio(c.Request.Context(), c.GetInt64(middleware.ContextUserID), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"studio": studio})
}

/* ---------- ROOM HANDLERS ---------- */

func (h *Handler) GetRoomByID(c *gin.Context) {
	id, ok := paramID(c, "Invalid room ID")
	if !ok {
		return
	}
	details, err := h.service.GetRoom(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, details)
}

func (h *Handler) CreateRoom(c *gin.Context) {
	studioID, ok := paramID(c, "Invalid studio ID")
	if !ok {
		return
	}
	var req CreateRoomRequest
	if !bind(c, &req) {
		return
	}
	room, err := h.service.CreateRoom(c.Request.Context(), c.GetInt64(middleware.ContextUserID), studioID, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"room": room})
}

func (h *Handler) AddEquipment(c *gin.Context) {
	roomID, ok := paramID(c, "Invalid room ID")
	if !ok {
		return
	}
	var req CreateEquipmentRequest
	if !bind(c, &req) {
		return
	}
	item, err := h.service.AddEquipment(c.Request.Context(), c.GetInt64(middleware.ContextUserID), roomID, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"equipment": item})
}

/* ---------- STAFF HANDLERS ---------- */

func (h *Handler) AddStaff(c *gin.Context) {
	studioID, ok := paramID(c, "Invalid studio ID")
	if !ok {
		return
	}
	var req AddStaffRequest
	if !bind(c, &req) {
		return
	}
	member, err := h.service.AddStaff(c.Request.Context(), c.GetInt64(middleware.ContextUserID), studioID, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"staff": member})
}

func (h *Handler) ListStaff(c *gin.Context) {
	studioID, ok := paramID(c, "Invalid studio ID")
	if !ok {
		return
	}
	members, err := h.service.ListStaff(c.Request.Context(), c.GetInt64(middleware.ContextUserID), studioID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"staff": members})
}

/* ---------- HELPERS ---------- */

func paramID(c *gin.Context, msg string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", msg)
		return 0, false
	}
	return id, true
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", errs)
		return false
	}
	return true
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You don't have permission to perform this action")
	case errors.Is(err, ErrInvalidRate), errors.Is(err, ErrNotStaffUser):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrAlreadyStaff):
		response.Error(c, http.StatusConflict, "ALREADY_STAFF", "User already belongs to a studio")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
