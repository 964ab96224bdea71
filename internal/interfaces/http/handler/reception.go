package handler

import (
	"context"

	receptionapp "github.com/clinicore/backend/internal/application/reception"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReceptionHandler handles the front-desk endpoints: the patient register
// and the appointment book.
type ReceptionHandler struct {
	BaseHandler
	receptionService *receptionapp.ReceptionService
}

// NewReceptionHandler creates a new ReceptionHandler
func NewReceptionHandler(receptionService *receptionapp.ReceptionService) *ReceptionHandler {
	return &ReceptionHandler{
		receptionService: receptionService,
	}
}

// RegisterPatient adds a patient to the clinic's register
func (h *ReceptionHandler) RegisterPatient(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	var req receptionapp.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	resp, err := h.receptionService.RegisterPatient(c.Request.Context(), clinicID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetPatient retrieves a single patient
func (h *ReceptionHandler) GetPatient(c *gin.Context) {
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

	resp, err := h.receptionService.GetPatient(c.Request.Context(), clinicID, patientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListPatients lists the clinic's patient register
func (h *ReceptionHandler) ListPatients(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	var filter receptionapp.PatientListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	patients, err := h.receptionService.ListPatients(c.Request.Context(), clinicID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, patients)
}

// BookAppointment books a visit with a doctor
func (h *ReceptionHandler) BookAppointment(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	var req receptionapp.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	resp, err := h.receptionService.BookAppointment(c.Request.Context(), clinicID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// ApproveAppointment confirms a pending appointment
func (h *ReceptionHandler) ApproveAppointment(c *gin.Context) {
	h.transition(c, h.receptionService.ApproveAppointment)
}

// CheckIn marks an approved appointment as checked in, which places the
// visit on the doctor's queue.
func (h *ReceptionHandler) CheckIn(c *gin.Context) {
	h.transition(c, h.receptionService.CheckIn)
}

// CancelAppointment cancels an appointment that has not completed
func (h *ReceptionHandler) CancelAppointment(c *gin.Context) {
	h.transition(c, h.receptionService.CancelAppointment)
}

// ListAppointments lists the clinic's appointment book
func (h *ReceptionHandler) ListAppointments(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	var filter receptionapp.AppointmentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	appointments, err := h.receptionService.ListAppointments(c.Request.Context(), clinicID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, appointments)
}

type appointmentTransition func(ctx context.Context, clinicID, appointmentID uuid.UUID) (*receptionapp.AppointmentResponse, error)

func (h *ReceptionHandler) transition(c *gin.Context, fn appointmentTransition) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid appointment ID format")
		return
	}

	resp, err := fn(c.Request.Context(), clinicID, appointmentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
