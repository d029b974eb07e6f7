package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vamsi-krishn/EHR-system/internal/handler"
	"github.com/vamsi-krishn/EHR-system/internal/middleware"
	"github.com/vamsi-krishn/EHR-system/internal/model"
	"github.com/vamsi-krishn/EHR-system/internal/service/appointment"
	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	appointments := protected.Group("/appointments")
	{
		appointments.POST("", middleware.RequireRole(model.RolePatient), h.BookAppointment)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PATCH("/:id/status", middleware.RequireRole(model.RolePatient, model.RoleDoctor, model.RoleAdmin), h.UpdateStatus)
	}
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	actor, _ := middleware.ActorFrom(c)
	appt, err := h.service.Book(c.Request.Context(), actor.Address, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondSuccess(c, http.StatusCreated, appt)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	appt, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	actor, _ := middleware.ActorFrom(c)
	if err := authorizeParty(actor, appt); err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondSuccess(c, http.StatusOK, appt)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	actor, _ := middleware.ActorFrom(c)
	updated, err := h.service.SetStatusAs(c.Request.Context(), actor, c.Param("id"), model.AppointmentStatus(req.Status))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondSuccess(c, http.StatusOK, updated)
}

func authorizeParty(actor model.Actor, appt *model.Appointment) error {
	switch {
	case actor.Role == model.RoleAdmin:
		return nil
	case actor.Role == model.RolePatient && actor.ID == appt.PatientID:
		return nil
	case actor.Role == model.RoleDoctor && actor.ID == appt.DoctorID:
		return nil
	}
	return apperrors.Forbidden("not a party to this appointment")
}
