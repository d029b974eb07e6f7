package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vamsi-krishn/EHR-system/internal/handler"
	"github.com/vamsi-krishn/EHR-system/internal/model"
	"github.com/vamsi-krishn/EHR-system/internal/service/identity"
)

type Handler struct {
	identity *identity.Service
}

func NewHandler(identitySvc *identity.Service) *Handler {
	return &Handler{identity: identitySvc}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	doctors := public.Group("/doctors")
	{
		doctors.POST("", h.RegisterDoctor)
		doctors.GET("", h.ListDoctors)
	}

	protected.GET("/doctors/:address", h.GetDoctorData)
}

func (h *Handler) RegisterDoctor(c *gin.Context) {
	var req model.RegisterDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	doctor, err := h.identity.RegisterDoctor(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondSuccess(c, http.StatusCreated, doctor)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.identity.ListDoctors(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondSuccess(c, http.StatusOK, doctors)
}

func (h *Handler) GetDoctorData(c *gin.Context) {
	data, err := h.identity.DoctorData(c.Request.Context(), c.Param("address"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	handler.RespondSuccess(c, http.StatusOK, data)
}
