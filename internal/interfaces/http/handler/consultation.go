package handler

import (
	consultationapp "github.com/clinicore/backend/internal/application/consultation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ConsultationHandler handles the doctor-facing endpoints: the daily
// queue, visit finalization and patient history.
type ConsultationHandler struct {
	BaseHandler
	consultationService *consultationapp.ConsultationService
}

// NewConsultationHandler creates a new ConsultationHandler
func NewConsultationHandler(consultationService *consultationapp.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{
		consultationService: consultationService,
	}
}

// Queue lists today's checked-in visits for the acting doctor
func (h *ConsultationHandler) Queue(c *gin.Context) {
	clinicID, doctorID, ok := h.actingDoctor(c)
	if !ok {
		return
	}

	entries, err := h.consultationService.Queue(c.Request.Context(), clinicID, doctorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}

// Start pulls the next visit into consultation
func (h *ConsultationHandler) Start(c *gin.Context) {
	clinicID, doctorID, ok := h.actingDoctor(c)
	if !ok {
		return
	}

	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid appointment ID format")
		return
	}

	if err := h.consultationService.Start(c.Request.Context(), clinicID, doctorID, appointmentID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Complete finalizes a visit: assessment, prescriptions, test orders,
// consultation invoice and queue update in one transaction.
func (h *ConsultationHandler) Complete(c *gin.Context) {
	clinicID, doctorID, ok := h.actingDoctor(c)
	if !ok {
		return
	}

	var req consultationapp.CompleteConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	resp, err := h.consultationService.Complete(c.Request.Context(), clinicID, doctorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// History lists a patient's medical records
func (h *ConsultationHandler) History(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid patient ID format")
		return
	}

	records, err := h.consultationService.History(c.Request.Context(), clinicID, patientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}

func (h *ConsultationHandler) actingDoctor(c *gin.Context) (clinicID, doctorID uuid.UUID, ok bool) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return uuid.Nil, uuid.Nil, false
	}
	doctorID, err = getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Missing user context")
		return uuid.Nil, uuid.Nil, false
	}
	return clinicID, doctorID, true
}
