package usecases

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cryptbill/cryptbill/internal/application/invoice/oracle"
	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewDiscard()
}

// memoryRepo stores snapshots so callers never share aggregate pointers with the store.
type memoryRepo struct {
	mu       sync.Mutex
	invoices map[string]*invoice.Invoice
	periods  map[string]bool

	createErr   error
	markPaidErr error
	listErr     error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		invoices: make(map[string]*invoice.Invoice),
		periods:  make(map[string]bool),
	}
}

func snapshot(inv *invoice.Invoice) *invoice.Invoice {
	copied, err := invoice.ReconstructInvoice(invoice.InvoiceState{
		ID:             inv.ID(),
		StaffID:        inv.StaffID(),
		ClientID:       inv.ClientID(),
		Amount:         inv.Amount(),
		Currency:       inv.Currency(),
		Asset:          inv.Asset(),
		PaymentAddress: inv.PaymentAddress(),
		Description:    inv.Description(),
		Status:         inv.Status(),
		PaidAt:         inv.PaidAt(),
		TxReference:    inv.TxReference(),
		ObservedAmount: inv.ObservedAmount(),
		Confirmations:  inv.Confirmations(),
		Recurrence:     inv.Recurrence(),
		SeriesID:       inv.SeriesID(),
		PeriodIndex:    inv.PeriodIndex(),
		Version:        inv.Version(),
		CreatedAt:      inv.CreatedAt(),
		UpdatedAt:      inv.UpdatedAt(),
	})
	if err != nil {
		panic(err)
	}
	return copied
}

func periodKey(inv *invoice.Invoice) string {
	if inv.SeriesID() == nil {
		return ""
	}
	return fmt.Sprintf("%s/%d", *inv.SeriesID(), inv.PeriodIndex())
}

func (r *memoryRepo) Create(_ context.Context, inv *invoice.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if key := periodKey(inv); key != "" {
		if r.periods[key] {
			return invoice.ErrPeriodAlreadySpawned
		}
		r.periods[key] = true
	}
	r.invoices[inv.ID()] = snapshot(inv)
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, invoice.ErrInvoiceNotFound
	}
	return snapshot(inv), nil
}

func (r *memoryRepo) MarkPaid(_ context.Context, inv *invoice.Invoice) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markPaidErr != nil {
		return false, r.markPaidErr
	}
	stored, ok := r.invoices[inv.ID()]
	if !ok || !stored.Status().IsPending() {
		return false, nil
	}
	r.invoices[inv.ID()] = snapshot(inv)
	return true, nil
}

func (r *memoryRepo) ListPending(_ context.Context, limit int) ([]*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*invoice.Invoice
	for _, inv := range r.sorted() {
		if inv.Status().IsPending() {
			out = append(out, snapshot(inv))
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepo) ListRecurring(_ context.Context) ([]*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest := make(map[string]*invoice.Invoice)
	for _, inv := range r.invoices {
		if !inv.IsRecurring() {
			continue
		}
		sid := *inv.SeriesID()
		if cur, ok := latest[sid]; !ok || inv.PeriodIndex() > cur.PeriodIndex() {
			latest[sid] = inv
		}
	}
	var out []*invoice.Invoice
	for _, inv := range latest {
		out = append(out, snapshot(inv))
	}
	return out, nil
}

func (r *memoryRepo) List(_ context.Context, f invoice.ListFilter) ([]*invoice.Invoice, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*invoice.Invoice
	for _, inv := range r.sorted() {
		if f.StaffID != "" && inv.StaffID() != f.StaffID {
			continue
		}
		if f.ClientID != "" && inv.ClientID() != f.ClientID {
			continue
		}
		if f.Status != nil && inv.Status() != *f.Status {
			continue
		}
		if f.Asset != nil && inv.Asset() != *f.Asset {
			continue
		}
		matched = append(matched, snapshot(inv))
	}
	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if f.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[f.Offset:end], total, nil
}

func (r *memoryRepo) Stats(_ context.Context, f invoice.StatsFilter) (*invoice.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &invoice.Stats{PaidByAsset: make(map[vo.Asset]decimal.Decimal)}
	for _, inv := range r.invoices {
		if f.StaffID != "" && inv.StaffID() != f.StaffID {
			continue
		}
		if f.ClientID != "" && inv.ClientID() != f.ClientID {
			continue
		}
		stats.Total++
		if inv.IsPaid() {
			stats.Paid++
			stats.PaidByAsset[inv.Asset()] = stats.PaidByAsset[inv.Asset()].Add(inv.Amount())
		} else {
			stats.Pending++
		}
	}
	return stats, nil
}

func (r *memoryRepo) sorted() []*invoice.Invoice {
	out := make([]*invoice.Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out
}

func (r *memoryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.invoices)
}

func (r *memoryRepo) put(inv *invoice.Invoice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices[inv.ID()] = snapshot(inv)
	if key := periodKey(inv); key != "" {
		r.periods[key] = true
	}
}

type mockDirectory struct {
	mu        sync.Mutex
	staff     map[string]invoice.StaffAddresses
	names     map[string]string
	clients   map[string]bool
	lookupErr error
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		staff: map[string]invoice.StaffAddresses{
			"S1": {LTC: "ltc1qExample"},
		},
		names:   map[string]string{"S1": "Sam Staff", "C1": "Casey Client"},
		clients: map[string]bool{"C1": true},
	}
}

func (d *mockDirectory) setAddresses(staffID string, addrs invoice.StaffAddresses) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.staff[staffID] = addrs
}

func (d *mockDirectory) ResolveStaffAddresses(_ context.Context, staffID string) (invoice.StaffAddresses, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lookupErr != nil {
		return invoice.StaffAddresses{}, d.lookupErr
	}
	return d.staff[staffID], nil
}

func (d *mockDirectory) StaffExists(_ context.Context, staffID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.staff[staffID]
	return ok, d.lookupErr
}

func (d *mockDirectory) ClientExists(_ context.Context, clientID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clients[clientID], d.lookupErr
}

func (d *mockDirectory) StaffName(_ context.Context, staffID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.names[staffID], nil
}

func (d *mockDirectory) ClientName(_ context.Context, clientID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.names[clientID], nil
}

type mockOracle struct {
	calls   atomic.Int32
	mu      sync.Mutex
	queries []oracle.Query
	check   func(ctx context.Context, q oracle.Query) (*oracle.Result, error)
}

func (o *mockOracle) CheckPayment(ctx context.Context, q oracle.Query) (*oracle.Result, error) {
	o.calls.Add(1)
	o.mu.Lock()
	o.queries = append(o.queries, q)
	o.mu.Unlock()
	if o.check == nil {
		return oracle.NotPaid(), nil
	}
	return o.check(ctx, q)
}

func paidOracle(tx string) *mockOracle {
	return &mockOracle{check: func(_ context.Context, q oracle.Query) (*oracle.Result, error) {
		return &oracle.Result{Paid: true, TxReference: tx, ObservedAmount: q.MinAmount, Confirmations: 6}, nil
	}}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []invoice.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e invoice.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
