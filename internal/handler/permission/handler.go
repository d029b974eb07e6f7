package permission

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vamsi-krishn/EHR-system/internal/handler"
	"github.com/vamsi-krishn/EHR-system/internal/middleware"
	"github.com/vamsi-krishn/EHR-system/internal/model"
	"github.com/vamsi-krishn/EHR-system/internal/service/permission"
)

type Handler struct {
	service *permission.Service
}

func NewHandler(service *permission.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/permissions/check", h.CheckPermission)

	perms := protected.Group("/permissions", middleware.RequireRole(model.RolePatient))
	{
		perms.POST("/grant", h.GrantPermission)
		perms.POST("/revoke", h.RevokePermission)
	}
}

func (h *Handler) GrantPermission(c *gin.Context) {
	h.setPermission(c, true)
}

func (h *Handler) RevokePermission(c *gin.Context) {
	h.setPermission(c, false)
}

func (h *Handler) setPermission(c *gin.Context, granted bool) {
	var req model.PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	actor, _ := middleware.ActorFrom(c)
	ctx := c.Request.Context()

	var err error
	if granted {
		err = h.service.Grant(ctx, actor.Address, req.DoctorAddress)
	} else {
		err = h.service.Revoke(ctx, actor.Address, req.DoctorAddress)
	}
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondSuccess(c, http.StatusOK, model.PermissionStatus{
		PatientAddress: actor.Address,
		DoctorAddress:  req.DoctorAddress,
		Granted:        granted,
	})
}

func (h *Handler) CheckPermission(c *gin.Context) {
	patientAddress := strings.TrimSpace(c.Query("patient"))
	doctorAddress := strings.TrimSpace(c.Query("doctor"))
	if patientAddress == "" || doctorAddress == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("patient and doctor are required"))
		return
	}

	granted, err := h.service.Check(c.Request.Context(), patientAddress, doctorAddress)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondSuccess(c, http.StatusOK, model.PermissionStatus{
		PatientAddress: patientAddress,
		DoctorAddress:  doctorAddress,
		Granted:        granted,
	})
}
