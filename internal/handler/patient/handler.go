package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vamsi-krishn/EHR-system/internal/handler"
	"github.com/vamsi-krishn/EHR-system/internal/middleware"
	"github.com/vamsi-krishn/EHR-system/internal/model"
	"github.com/vamsi-krishn/EHR-system/internal/service/identity"
	"github.com/vamsi-krishn/EHR-system/internal/service/permission"
	"github.com/vamsi-krishn/EHR-system/internal/service/record"
)

type Handler struct {
	identity    *identity.Service
	records     *record.Service
	permissions *permission.Service
	access      *handler.Access
}

func NewHandler(identitySvc *identity.Service, records *record.Service, permissions *permission.Service, access *handler.Access) *Handler {
	return &Handler{
		identity:    identitySvc,
		records:     records,
		permissions: permissions,
		access:      access,
	}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/patients", h.RegisterPatient)

	patients := protected.Group("/patients")
	{
		patients.GET("/:address", h.GetPatientData)
		patients.GET("/:address/records", h.ListRecords)
		patients.GET("/:address/permission-logs", h.ListPermissionLogs)
	}
}

func (h *Handler) RegisterPatient(c *gin.Context) {
	var req model.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	patient, err := h.identity.RegisterPatient(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondSuccess(c, http.StatusCreated, patient)
}

func (h *Handler) GetPatientData(c *gin.Context) {
	address := c.Param("address")
	actor, _ := middleware.ActorFrom(c)
	if err := h.access.Patient(c.Request.Context(), actor, address); err != nil {
		handler.RespondError(c, err)
		return
	}

	data, err := h.identity.PatientData(c.Request.Context(), address)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondSuccess(c, http.StatusOK, data)
}

func (h *Handler) ListRecords(c *gin.Context) {
	address := c.Param("address")
	actor, _ := middleware.ActorFrom(c)
	if err := h.access.Patient(c.Request.Context(), actor, address); err != nil {
		handler.RespondError(c, err)
		return
	}

	records, err := h.records.ListByPatientAddress(c.Request.Context(), address)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondSuccess(c, http.StatusOK, records)
}

func (h *Handler) ListPermissionLogs(c *gin.Context) {
	address := c.Param("address")
	actor, _ := middleware.ActorFrom(c)
	if err := h.access.Self(actor, address); err != nil {
		handler.RespondError(c, err)
		return
	}

	logs, err := h.permissions.Logs(c.Request.Context(), address)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondSuccess(c, http.StatusOK, logs)
}
