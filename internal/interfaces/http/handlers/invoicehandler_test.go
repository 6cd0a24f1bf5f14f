package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptbill/cryptbill/internal/application/invoice/dto"
	"github.com/cryptbill/cryptbill/internal/application/invoice/usecases"
	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
	"github.com/cryptbill/cryptbill/internal/interfaces/http/handlers/testutil"
	"github.com/cryptbill/cryptbill/internal/shared/errors"
)

// =====================================================================
// Mock use cases
// =====================================================================

type mockCreateInvoiceUC struct {
	result *invoice.Invoice
	err    error
	cmd    usecases.CreateInvoiceCommand
}

func (m *mockCreateInvoiceUC) Execute(ctx context.Context, cmd usecases.CreateInvoiceCommand) (*invoice.Invoice, error) {
	m.cmd = cmd
	return m.result, m.err
}

type mockGetInvoiceUC struct {
	result *invoice.Invoice
	err    error
}

func (m *mockGetInvoiceUC) Execute(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	return m.result, m.err
}

type mockListInvoicesUC struct {
	result *usecases.ListInvoicesResult
	err    error
	query  usecases.ListInvoicesQuery
}

func (m *mockListInvoicesUC) Execute(ctx context.Context, query usecases.ListInvoicesQuery) (*usecases.ListInvoicesResult, error) {
	m.query = query
	return m.result, m.err
}

type mockInvoiceStatsUC struct {
	result *usecases.InvoiceStats
	err    error
}

func (m *mockInvoiceStatsUC) Execute(ctx context.Context, query usecases.InvoiceStatsQuery) (*usecases.InvoiceStats, error) {
	return m.result, m.err
}

type mockCheckPaymentUC struct {
	result *usecases.CheckResult
	err    error
}

func (m *mockCheckPaymentUC) CheckOne(ctx context.Context, invoiceID string) (*usecases.CheckResult, error) {
	return m.result, m.err
}

type mockBuildReceiptUC struct {
	result *usecases.ReceiptData
	err    error
}

func (m *mockBuildReceiptUC) Execute(ctx context.Context, invoiceID string) (*usecases.ReceiptData, error) {
	return m.result, m.err
}

// =====================================================================
// Test helpers
// =====================================================================

type invoiceHandlerDeps struct {
	create  *mockCreateInvoiceUC
	get     *mockGetInvoiceUC
	list    *mockListInvoicesUC
	stats   *mockInvoiceStatsUC
	check   *mockCheckPaymentUC
	receipt *mockBuildReceiptUC
}

func newTestInvoiceHandler() (*InvoiceHandler, *invoiceHandlerDeps) {
	deps := &invoiceHandlerDeps{
		create:  &mockCreateInvoiceUC{},
		get:     &mockGetInvoiceUC{},
		list:    &mockListInvoicesUC{},
		stats:   &mockInvoiceStatsUC{},
		check:   &mockCheckPaymentUC{},
		receipt: &mockBuildReceiptUC{},
	}
	h := NewInvoiceHandler(deps.create, deps.get, deps.list, deps.stats, deps.check, deps.receipt, testutil.NewMockLogger())
	return h, deps
}

func createTestInvoice(t *testing.T) *invoice.Invoice {
	t.Helper()
	inv, err := invoice.NewInvoice(invoice.CreateParams{
		StaffID:        "S1",
		ClientID:       "C1",
		Amount:         decimal.RequireFromString("25.50"),
		Currency:       vo.CurrencyAny,
		Asset:          vo.AssetUSDT,
		PaymentAddress: "0xStaffUSDT",
		Description:    "May retainer",
		CreatedAt:      time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return inv
}

func decodeData[T any](t *testing.T, resp testutil.APIResponse) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

// =====================================================================
// CreateInvoice
// =====================================================================

func TestInvoiceHandler_CreateInvoice_Success(t *testing.T) {
	h, deps := newTestInvoiceHandler()
	deps.create.result = createTestInvoice(t)

	c, w := testutil.NewTestContext(http.MethodPost, "/api/invoices", CreateInvoiceRequest{
		StaffID:  "S1",
		ClientID: "C1",
		Amount:   "25.50",
		Currency: "any",
	})

	h.CreateInvoice(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.True(t, resp.Success)

	body := decodeData[dto.InvoiceDTO](t, resp)
	assert.Equal(t, "CRYPTO", body.Currency)
	assert.Equal(t, "USDT", body.Asset)
	assert.Equal(t, "polygon", body.Network)
	assert.Equal(t, "pending", body.Status)
	assert.Nil(t, body.Settlement)
	assert.True(t, decimal.RequireFromString("25.5").Equal(deps.create.cmd.Amount))
}

func TestInvoiceHandler_CreateInvoice_InvalidRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		details string
	}{
		{
			name:    "missing fields",
			body:    map[string]string{"staff_id": "S1"},
			details: "client_id is required",
		},
		{
			name:    "unknown currency",
			body:    CreateInvoiceRequest{StaffID: "S1", ClientID: "C1", Amount: "1", Currency: "DOGE"},
			details: "currency must be LTC, USDT, USDC or CRYPTO",
		},
		{
			name:    "bad frequency",
			body:    CreateInvoiceRequest{StaffID: "S1", ClientID: "C1", Amount: "1", Currency: "LTC", AutoGenerate: true, Frequency: "daily"},
			details: "frequency must be one of [weekly monthly]",
		},
		{
			name:    "amount not a number",
			body:    CreateInvoiceRequest{StaffID: "S1", ClientID: "C1", Amount: "ten", Currency: "LTC"},
			details: "ten",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestInvoiceHandler()
			c, w := testutil.NewTestContext(http.MethodPost, "/api/invoices", tt.body)

			h.CreateInvoice(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp testutil.APIResponse
			require.NoError(t, testutil.ParseResponse(w, &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "validation_error", resp.Error.Type)
			assert.Contains(t, resp.Error.Details, tt.details)
		})
	}
}

func TestInvoiceHandler_CreateInvoice_UseCaseError(t *testing.T) {
	h, deps := newTestInvoiceHandler()
	deps.create.err = errors.NewNotFoundError("client not found", "C404")

	c, w := testutil.NewTestContext(http.MethodPost, "/api/invoices", CreateInvoiceRequest{
		StaffID:  "S1",
		ClientID: "C404",
		Amount:   "10",
		Currency: "LTC",
	})

	h.CreateInvoice(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =====================================================================
// ListInvoices / GetInvoiceStats / GetInvoice
// =====================================================================

func TestInvoiceHandler_ListInvoices(t *testing.T) {
	h, deps := newTestInvoiceHandler()
	deps.list.result = &usecases.ListInvoicesResult{
		Invoices: []*invoice.Invoice{createTestInvoice(t)},
		Total:    41,
		Page:     2,
		PageSize: 20,
	}

	c, w := testutil.NewTestContext(http.MethodGet, "/api/invoices", nil)
	testutil.SetQueryParams(c, map[string]string{"staff_id": "S1", "status": "pending", "page": "2"})

	h.ListInvoices(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "S1", deps.list.query.StaffID)
	assert.Equal(t, "pending", deps.list.query.Status)
	assert.Equal(t, 2, deps.list.query.Page)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	page := decodeData[struct {
		Items      []dto.InvoiceDTO `json:"items"`
		Total      int64            `json:"total"`
		TotalPages int              `json:"total_pages"`
	}](t, resp)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int64(41), page.Total)
	assert.Equal(t, 3, page.TotalPages)
}

func TestInvoiceHandler_ListInvoices_BadStatus(t *testing.T) {
	h, _ := newTestInvoiceHandler()
	c, w := testutil.NewTestContext(http.MethodGet, "/api/invoices", nil)
	testutil.SetQueryParams(c, map[string]string{"status": "expired"})

	h.ListInvoices(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceHandler_GetInvoiceStats(t *testing.T) {
	h, deps := newTestInvoiceHandler()
	deps.stats.result = &usecases.InvoiceStats{
		Total:   3,
		Pending: 1,
		Paid:    2,
		PaidByAsset: map[string]decimal.Decimal{
			"LTC":  decimal.RequireFromString("0.5"),
			"USDT": decimal.Zero,
			"USDC": decimal.RequireFromString("100"),
		},
	}

	c, w := testutil.NewTestContext(http.MethodGet, "/api/invoices/stats", nil)
	h.GetInvoiceStats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	stats := decodeData[dto.InvoiceStatsDTO](t, resp)
	assert.Equal(t, int64(2), stats.Paid)
	assert.True(t, decimal.RequireFromString("100").Equal(stats.PaidByAsset["USDC"]))
}

func TestInvoiceHandler_GetInvoice(t *testing.T) {
	inv := createTestInvoice(t)

	tests := []struct {
		name       string
		id         string
		result     *invoice.Invoice
		err        error
		wantStatus int
	}{
		{name: "found", id: inv.ID(), result: inv, wantStatus: http.StatusOK},
		{name: "malformed id", id: "12345", wantStatus: http.StatusBadRequest},
		{name: "not found", id: "inv_missing", err: errors.NewNotFoundError("invoice not found"), wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, deps := newTestInvoiceHandler()
			deps.get.result = tt.result
			deps.get.err = tt.err

			c, w := testutil.NewTestContext(http.MethodGet, "/api/invoices/"+tt.id, nil)
			testutil.SetURLParam(c, "id", tt.id)

			h.GetInvoice(c)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

// =====================================================================
// CheckPayment
// =====================================================================

func TestInvoiceHandler_CheckPayment_Paid(t *testing.T) {
	h, deps := newTestInvoiceHandler()
	tx := "0xfeed"
	deps.check.result = &usecases.CheckResult{
		InvoiceID:   "inv_abc",
		Status:      vo.InvoiceStatusPaid,
		TxReference: &tx,
		Outcome:     usecases.CheckOutcomeConfirmed,
	}

	c, w := testutil.NewTestContext(http.MethodPost, "/api/invoices/inv_abc/check-payment", nil)
	testutil.SetURLParam(c, "id", "inv_abc")

	h.CheckPayment(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	body := decodeData[dto.CheckPaymentDTO](t, resp)
	assert.Equal(t, "paid", body.Status)
	require.NotNil(t, body.TxReference)
	assert.Equal(t, "0xfeed", *body.TxReference)
	assert.Equal(t, "Invoice is paid", resp.Message)
}

func TestInvoiceHandler_CheckPayment_StillPending(t *testing.T) {
	h, deps := newTestInvoiceHandler()
	deps.check.result = &usecases.CheckResult{
		InvoiceID: "inv_abc",
		Status:    vo.InvoiceStatusPending,
		Outcome:   usecases.CheckOutcomeStillPending,
	}

	c, w := testutil.NewTestContext(http.MethodPost, "/api/invoices/inv_abc/check-payment", nil)
	testutil.SetURLParam(c, "id", "inv_abc")

	h.CheckPayment(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	body := decodeData[dto.CheckPaymentDTO](t, resp)
	assert.Equal(t, "pending", body.Status)
	assert.Nil(t, body.TxReference)
}

func TestInvoiceHandler_CheckPayment_OracleUnavailable(t *testing.T) {
	h, deps := newTestInvoiceHandler()
	deps.check.err = errors.NewUnavailableError("payment oracle unavailable, retry later")

	c, w := testutil.NewTestContext(http.MethodPost, "/api/invoices/inv_abc/check-payment", nil)
	testutil.SetURLParam(c, "id", "inv_abc")

	h.CheckPayment(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "unavailable", resp.Error.Type)
	assert.True(t, resp.Error.Retryable)
}

// =====================================================================
// GetReceipt
// =====================================================================

func TestInvoiceHandler_GetReceipt(t *testing.T) {
	h, deps := newTestInvoiceHandler()
	paidAt := time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)
	deps.receipt.result = &usecases.ReceiptData{
		InvoiceID:   "inv_abc",
		Amount:      decimal.RequireFromString("25.5"),
		Currency:    "USDT",
		Asset:       "USDT",
		PaidAt:      paidAt,
		TxReference: "0xfeed",
		StaffName:   "Sam Staff",
		ClientName:  "Casey Client",
	}

	c, w := testutil.NewTestContext(http.MethodGet, "/api/invoices/inv_abc/receipt", nil)
	testutil.SetURLParam(c, "id", "inv_abc")

	h.GetReceipt(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	receipt := decodeData[dto.ReceiptDTO](t, resp)
	assert.Equal(t, "Sam Staff", receipt.StaffName)
	assert.Equal(t, "Casey Client", receipt.ClientName)
	assert.True(t, paidAt.Equal(receipt.PaidAt))
}

func TestInvoiceHandler_GetReceipt_NotPaid(t *testing.T) {
	h, deps := newTestInvoiceHandler()
	deps.receipt.err = errors.NewConflictError("invoice not paid")

	c, w := testutil.NewTestContext(http.MethodGet, "/api/invoices/inv_abc/receipt", nil)
	testutil.SetURLParam(c, "id", "inv_abc")

	h.GetReceipt(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}
