package record

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vamsi-krishn/EHR-system/internal/handler"
	"github.com/vamsi-krishn/EHR-system/internal/middleware"
	"github.com/vamsi-krishn/EHR-system/internal/model"
	"github.com/vamsi-krishn/EHR-system/internal/service/identity"
	"github.com/vamsi-krishn/EHR-system/internal/service/record"
	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
)

type Handler struct {
	records  *record.Service
	identity *identity.Service
	access   *handler.Access
}

func NewHandler(records *record.Service, identitySvc *identity.Service, access *handler.Access) *Handler {
	return &Handler{
		records:  records,
		identity: identitySvc,
		access:   access,
	}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	records := protected.Group("/records")
	{
		records.POST("", middleware.RequireRole(model.RolePatient, model.RoleDoctor), h.AddRecord)
		records.GET("/:id", h.GetRecord)
		records.PUT("/:id", middleware.RequireRole(model.RolePatient, model.RoleDoctor), h.UpdateRecord)
	}
}

func (h *Handler) AddRecord(c *gin.Context) {
	var req model.AddRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	actor, _ := middleware.ActorFrom(c)
	if actor.Role == model.RoleDoctor && req.PatientAddress != "" {
		// an unknown patient is a 404, not a missing grant
		if _, err := h.identity.Patient(ctx, req.PatientAddress); err != nil {
			handler.RespondError(c, err)
			return
		}
		if err := h.access.Patient(ctx, actor, req.PatientAddress); err != nil {
			handler.RespondError(c, err)
			return
		}
	}

	rec, err := h.records.Add(ctx, actor, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondSuccess(c, http.StatusCreated, rec)
}

func (h *Handler) GetRecord(c *gin.Context) {
	ctx := c.Request.Context()
	rec, err := h.records.Get(ctx, c.Param("id"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	if err := h.authorize(c, rec, false); err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondSuccess(c, http.StatusOK, rec)
}

func (h *Handler) UpdateRecord(c *gin.Context) {
	var req model.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	rec, err := h.records.Get(ctx, c.Param("id"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	if err := h.authorize(c, rec, true); err != nil {
		handler.RespondError(c, err)
		return
	}

	updated, err := h.records.Update(ctx, rec.ID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondSuccess(c, http.StatusOK, updated)
}

// authorize lets the owning patient through, and doctors holding the
// patient's grant. Writes by a doctor also require them to be the author.
func (h *Handler) authorize(c *gin.Context, rec *model.MedicalRecord, write bool) error {
	actor, _ := middleware.ActorFrom(c)

	switch actor.Role {
	case model.RolePatient:
		if actor.ID != rec.PatientID {
			return apperrors.Forbidden("record belongs to another patient")
		}
		return nil
	case model.RoleDoctor:
		if write && actor.ID != rec.DoctorID {
			return apperrors.Forbidden("only the authoring doctor may change this record")
		}
	}

	patient, err := h.identity.PatientByID(c.Request.Context(), rec.PatientID)
	if err != nil {
		return err
	}
	return h.access.Patient(c.Request.Context(), actor, patient.WalletAddress)
}
