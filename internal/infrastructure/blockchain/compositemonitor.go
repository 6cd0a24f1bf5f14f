package blockchain

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/cryptbill/cryptbill/internal/application/invoice/oracle"
	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
	"github.com/cryptbill/cryptbill/internal/shared/config"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

// CompositeMonitor routes payment checks to the monitor of the asset's network
type CompositeMonitor struct {
	mu              sync.RWMutex // Protects monitor fields for concurrent access
	polygonMonitor  oracle.PaymentOracle
	litecoinMonitor oracle.PaymentOracle
	logger          logger.Interface
}

func NewCompositeMonitor(polygonMonitor, litecoinMonitor oracle.PaymentOracle, logger logger.Interface) *CompositeMonitor {
	return &CompositeMonitor{
		polygonMonitor:  polygonMonitor,
		litecoinMonitor: litecoinMonitor,
		logger:          logger,
	}
}

// NewCompositeMonitorFromConfig builds both chain monitors sharing one retrying HTTP client.
// The per-check deadline comes from the caller's context.
func NewCompositeMonitorFromConfig(cfg config.OracleConfig, httpClient *http.Client, logger logger.Interface) *CompositeMonitor {
	client := newExplorerClient(httpClient, cfg.MaxRetries, logger.Named("explorer"))

	polygon := NewPolygonMonitor(PolygonMonitorConfig{
		APIURL:                cfg.Polygon.APIURL,
		APIKey:                cfg.Polygon.APIKey,
		USDTContract:          cfg.Polygon.USDTContract,
		USDCContract:          cfg.Polygon.USDCContract,
		RequiredConfirmations: cfg.Polygon.RequiredConfirmations,
	}, client, logger.Named("polygon"))

	litecoin := NewLitecoinMonitor(LitecoinMonitorConfig{
		APIURL:                cfg.Litecoin.APIURL,
		Token:                 cfg.Litecoin.Token,
		RequiredConfirmations: cfg.Litecoin.RequiredConfirmations,
	}, client, logger.Named("litecoin"))

	return NewCompositeMonitor(polygon, litecoin, logger)
}

// Ensure CompositeMonitor implements PaymentOracle
var _ oracle.PaymentOracle = (*CompositeMonitor)(nil)

func (m *CompositeMonitor) CheckPayment(ctx context.Context, q oracle.Query) (*oracle.Result, error) {
	m.mu.RLock()
	polygonMonitor := m.polygonMonitor
	litecoinMonitor := m.litecoinMonitor
	m.mu.RUnlock()

	if !q.Asset.IsValid() {
		return nil, fmt.Errorf("unsupported asset: %s", q.Asset)
	}

	switch q.Asset.Network() {
	case vo.NetworkPolygon:
		if polygonMonitor == nil {
			return nil, oracle.Unavailable(fmt.Errorf("polygon monitor not configured"))
		}
		return polygonMonitor.CheckPayment(ctx, q)
	case vo.NetworkLitecoin:
		if litecoinMonitor == nil {
			return nil, oracle.Unavailable(fmt.Errorf("litecoin monitor not configured"))
		}
		return litecoinMonitor.CheckPayment(ctx, q)
	default:
		return nil, fmt.Errorf("unsupported network: %s", q.Asset.Network())
	}
}

// UpdatePolygonMonitor swaps the Polygon monitor, e.g. after an API key rotation
func (m *CompositeMonitor) UpdatePolygonMonitor(monitor oracle.PaymentOracle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polygonMonitor = monitor
}

func (m *CompositeMonitor) UpdateLitecoinMonitor(monitor oracle.PaymentOracle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.litecoinMonitor = monitor
}
