package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cryptbill/cryptbill/internal/application/invoice/dto"
	"github.com/cryptbill/cryptbill/internal/application/invoice/usecases"
	"github.com/cryptbill/cryptbill/internal/shared/errors"
	"github.com/cryptbill/cryptbill/internal/shared/id"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
	"github.com/cryptbill/cryptbill/internal/shared/utils"
)

type InvoiceHandler struct {
	createInvoiceUC   createInvoiceUseCase
	getInvoiceUC      getInvoiceUseCase
	listInvoicesUC    listInvoicesUseCase
	getInvoiceStatsUC getInvoiceStatsUseCase
	checkPaymentUC    checkPaymentUseCase
	buildReceiptUC    buildReceiptUseCase
	logger            logger.Interface
}

func NewInvoiceHandler(
	createInvoiceUC createInvoiceUseCase,
	getInvoiceUC getInvoiceUseCase,
	listInvoicesUC listInvoicesUseCase,
	getInvoiceStatsUC getInvoiceStatsUseCase,
	checkPaymentUC checkPaymentUseCase,
	buildReceiptUC buildReceiptUseCase,
	logger logger.Interface,
) *InvoiceHandler {
	RegisterValidators()
	return &InvoiceHandler{
		createInvoiceUC:   createInvoiceUC,
		getInvoiceUC:      getInvoiceUC,
		listInvoicesUC:    listInvoicesUC,
		getInvoiceStatsUC: getInvoiceStatsUC,
		checkPaymentUC:    checkPaymentUC,
		buildReceiptUC:    buildReceiptUC,
		logger:            logger,
	}
}

// CreateInvoiceRequest carries the amount as a string so no precision is lost in transit.
type CreateInvoiceRequest struct {
	StaffID      string `json:"staff_id" binding:"required,max=64"`
	ClientID     string `json:"client_id" binding:"required,max=64"`
	Amount       string `json:"amount" binding:"required"`
	Currency     string `json:"currency" binding:"required,invoice_currency"`
	Description  string `json:"description" binding:"max=1000"`
	AutoGenerate bool   `json:"auto_generate"`
	Frequency    string `json:"frequency" binding:"omitempty,oneof=weekly monthly"`
}

type ListInvoicesRequest struct {
	StaffID  string `form:"staff_id"`
	ClientID string `form:"client_id"`
	Status   string `form:"status" binding:"omitempty,oneof=pending paid"`
	Asset    string `form:"asset"`
}

type InvoiceStatsRequest struct {
	StaffID  string `form:"staff_id"`
	ClientID string `form:"client_id"`
}

// CreateInvoice handles POST /api/invoices
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create invoice", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("amount must be a decimal number", req.Amount))
		return
	}

	inv, err := h.createInvoiceUC.Execute(c.Request.Context(), usecases.CreateInvoiceCommand{
		StaffID:      req.StaffID,
		ClientID:     req.ClientID,
		Amount:       amount,
		Currency:     req.Currency,
		Description:  req.Description,
		AutoGenerate: req.AutoGenerate,
		Frequency:    req.Frequency,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, dto.ToInvoiceDTO(inv), "Invoice created successfully")
}

// ListInvoices handles GET /api/invoices
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var req ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}
	pagination := utils.ParsePagination(c)

	result, err := h.listInvoicesUC.Execute(c.Request.Context(), usecases.ListInvoicesQuery{
		StaffID:  req.StaffID,
		ClientID: req.ClientID,
		Status:   req.Status,
		Asset:    req.Asset,
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, dto.ToInvoiceDTOList(result.Invoices), result.Total, result.Page, result.PageSize)
}

// GetInvoiceStats handles GET /api/invoices/stats
func (h *InvoiceHandler) GetInvoiceStats(c *gin.Context) {
	var req InvoiceStatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	stats, err := h.getInvoiceStatsUC.Execute(c.Request.Context(), usecases.InvoiceStatsQuery{
		StaffID:  req.StaffID,
		ClientID: req.ClientID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto.ToInvoiceStatsDTO(stats))
}

// GetInvoice handles GET /api/invoices/:id
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoiceID, err := parseInvoiceID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	inv, err := h.getInvoiceUC.Execute(c.Request.Context(), invoiceID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto.ToInvoiceDTO(inv))
}

// CheckPayment handles POST /api/invoices/:id/check-payment. An already paid
// invoice answers with its settlement without asking the chain again.
func (h *InvoiceHandler) CheckPayment(c *gin.Context) {
	invoiceID, err := parseInvoiceID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.checkPaymentUC.CheckOne(c.Request.Context(), invoiceID)
	if err != nil {
		if errors.IsUnavailableError(err) {
			h.logger.Warnw("payment check deferred, oracle unavailable",
				"invoice_id", invoiceID,
				"error", err,
			)
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	message := "Payment not yet observed"
	if result.Status.IsPaid() {
		message = "Invoice is paid"
	}
	utils.SuccessResponse(c, http.StatusOK, message, dto.ToCheckPaymentDTO(result))
}

// GetReceipt handles GET /api/invoices/:id/receipt
func (h *InvoiceHandler) GetReceipt(c *gin.Context) {
	invoiceID, err := parseInvoiceID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	receipt, err := h.buildReceiptUC.Execute(c.Request.Context(), invoiceID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto.ToReceiptDTO(receipt))
}

func parseInvoiceID(c *gin.Context) (string, error) {
	return utils.ParseSIDParam(c, "id", id.PrefixInvoice, "invoice")
}
