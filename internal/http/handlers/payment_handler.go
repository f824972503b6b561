package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/academic-services-backend/internal/dto"
	"github.com/ignatzorin/academic-services-backend/internal/http/handlers/common"
	"github.com/ignatzorin/academic-services-backend/internal/service"
)

type PaymentHandler struct {
	lifecycle *service.LifecycleService
}

func NewPaymentHandler(lifecycle *service.LifecycleService) *PaymentHandler {
	return &PaymentHandler{lifecycle: lifecycle}
}

// SubmitPayment POST /payments
func (h *PaymentHandler) SubmitPayment(c *gin.Context) {
	caller, err := common.ActiveCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req dto.SubmitPaymentRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}
	requestID, err := common.ParseUUIDField(req.RequestID, "requestId")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	payment, err := h.lifecycle.SubmitPayment(c.Request.Context(), caller, service.SubmitPaymentInput{
		RequestID:       requestID,
		ReferenceNumber: req.ReferenceNumber,
		Amount:          req.Amount,
		Currency:        req.Currency,
		ReceiptURL:      req.ReceiptURL,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// ReviewPayment PUT /payments/:id
func (h *PaymentHandler) ReviewPayment(c *gin.Context) {
	caller, err := common.ActiveCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	paymentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req dto.ReviewPaymentRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	payment, err := h.lifecycle.ReviewPayment(c.Request.Context(), caller, service.ReviewPaymentInput{
		PaymentID:       paymentID,
		Decision:        req.Status,
		RejectionReason: req.RejectionReason,
		FraudFlagged:    req.FraudFlagged,
		FraudNotes:      req.FraudNotes,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// FileDispute POST /payments/:id/dispute
func (h *PaymentHandler) FileDispute(c *gin.Context) {
	caller, err := common.ActiveCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	paymentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req dto.FileDisputeRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	dispute, err := h.lifecycle.FileDispute(c.Request.Context(), caller, paymentID, req.Explanation)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dispute)
}

// GetPayment GET /payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	paymentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	payment, err := h.lifecycle.GetPayment(c.Request.Context(), caller, paymentID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// ListPayments GET /payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	filter, err := common.ListFilterFromQuery(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	page, err := h.lifecycle.ListPayments(c.Request.Context(), caller, filter)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}
