package handler

import (
	"github.com/gin-gonic/gin"

	billingapp "github.com/hims/backend/internal/application/billing"
)

// AutoChargeHandler handles automatic charge synchronization endpoints
type AutoChargeHandler struct {
	BaseHandler
	autoChargeService *billingapp.AutoChargeService
}

// NewAutoChargeHandler creates a new AutoChargeHandler
func NewAutoChargeHandler(autoChargeService *billingapp.AutoChargeService) *AutoChargeHandler {
	return &AutoChargeHandler{
		autoChargeService: autoChargeService,
	}
}

// SyncBedCharges raises bed charges for an admission onto a draft invoice.
// Segments already billed elsewhere fail the run unless the request asks
// for them to be skipped.
func (h *AutoChargeHandler) SyncBedCharges(c *gin.Context) {
	var req billingapp.SyncBedChargesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.autoChargeService.SyncBedCharges(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// SyncOTCharges raises charges for a completed operating theatre case
// onto a draft invoice. An already billed case fails the run unless the
// request asks for it to be skipped.
func (h *AutoChargeHandler) SyncOTCharges(c *gin.Context) {
	var req billingapp.SyncOTChargesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.autoChargeService.SyncOTCharges(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
