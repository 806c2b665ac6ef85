package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	advanceapp "github.com/hims/backend/internal/application/advance"
)

// AdvanceHandler handles advance deposit API endpoints
type AdvanceHandler struct {
	BaseHandler
	advanceService *advanceapp.AdvanceService
}

// NewAdvanceHandler creates a new AdvanceHandler
func NewAdvanceHandler(advanceService *advanceapp.AdvanceService) *AdvanceHandler {
	return &AdvanceHandler{
		advanceService: advanceService,
	}
}

// Create records a new advance deposit for a patient
func (h *AdvanceHandler) Create(c *gin.Context) {
	var req advanceapp.CreateAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	deposit, err := h.advanceService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, deposit)
}

// GetByID retrieves an advance deposit by its ID
func (h *AdvanceHandler) GetByID(c *gin.Context) {
	advanceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid advance ID format")
		return
	}

	deposit, err := h.advanceService.GetByID(c.Request.Context(), advanceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, deposit)
}

// ListByPatient retrieves a patient's advance deposits
func (h *AdvanceHandler) ListByPatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		h.BadRequest(c, "Invalid patient ID format")
		return
	}

	var filter advanceapp.AdvanceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	deposits, total, err := h.advanceService.ListByPatient(c.Request.Context(), patientID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, deposits, total, filter.Page, filter.PageSize)
}

// GetPatientSummary returns a patient's total received, applied and
// available deposit balances
func (h *AdvanceHandler) GetPatientSummary(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		h.BadRequest(c, "Invalid patient ID format")
		return
	}

	summary, err := h.advanceService.GetPatientSummary(c.Request.Context(), patientID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// Apply applies deposit money to an invoice, oldest deposits first
func (h *AdvanceHandler) Apply(c *gin.Context) {
	var req advanceapp.ApplyAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.advanceService.Apply(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ListInvoiceAdjustments lists the adjustments applied to an invoice
func (h *AdvanceHandler) ListInvoiceAdjustments(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	adjustments, err := h.advanceService.ListInvoiceAdjustments(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, adjustments)
}

// ListAdvanceAdjustments lists the adjustments drawn from a deposit
func (h *AdvanceHandler) ListAdvanceAdjustments(c *gin.Context) {
	advanceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid advance ID format")
		return
	}

	adjustments, err := h.advanceService.ListAdvanceAdjustments(c.Request.Context(), advanceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, adjustments)
}

// RemoveAdjustment unwinds a single adjustment, restoring the deposit
// balance and the invoice's advance position
func (h *AdvanceHandler) RemoveAdjustment(c *gin.Context) {
	adjustmentID, err := uuid.Parse(c.Param("adjustment_id"))
	if err != nil {
		h.BadRequest(c, "Invalid adjustment ID format")
		return
	}

	if err := h.advanceService.RemoveAdjustment(c.Request.Context(), adjustmentID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Void voids an untouched deposit
func (h *AdvanceHandler) Void(c *gin.Context) {
	advanceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid advance ID format")
		return
	}

	var req advanceapp.VoidAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	deposit, err := h.advanceService.Void(c.Request.Context(), advanceID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, deposit)
}
