// Package directory defines the staff and client lookups owned by the directory service.
package directory

import (
	"context"

	"github.com/cryptbill/cryptbill/internal/domain/invoice"
)

type Directory interface {
	ResolveStaffAddresses(ctx context.Context, staffID string) (invoice.StaffAddresses, error)
	StaffExists(ctx context.Context, staffID string) (bool, error)
	ClientExists(ctx context.Context, clientID string) (bool, error)
	// StaffName and ClientName return "" for unknown ids.
	StaffName(ctx context.Context, staffID string) (string, error)
	ClientName(ctx context.Context, clientID string) (string, error)
}
