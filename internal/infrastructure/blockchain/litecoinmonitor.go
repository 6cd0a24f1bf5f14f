package blockchain

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cryptbill/cryptbill/internal/application/invoice/oracle"
	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

const (
	// BlockCypher Litecoin mainnet API
	blockcypherLTCAPIURL = "https://api.blockcypher.com/v1/ltc/main"
	// Number of tx references returned per address lookup
	blockcypherTxLimit = 50
)

// blockcypherTxRef is one input or output touching the address
type blockcypherTxRef struct {
	TxHash        string    `json:"tx_hash"`
	BlockHeight   int64     `json:"block_height"`
	TxInputN      int       `json:"tx_input_n"`
	TxOutputN     int       `json:"tx_output_n"`
	Value         int64     `json:"value"`
	Confirmations int       `json:"confirmations"`
	Confirmed     time.Time `json:"confirmed"`
	Received      time.Time `json:"received"`
}

type blockcypherAddressResponse struct {
	Address            string             `json:"address"`
	TxRefs             []blockcypherTxRef `json:"txrefs"`
	UnconfirmedTxRefs  []blockcypherTxRef `json:"unconfirmed_txrefs"`
	Error              string             `json:"error"`
	FinalNTx           int                `json:"final_n_tx"`
	UnconfirmedBalance int64              `json:"unconfirmed_balance"`
}

type LitecoinMonitorConfig struct {
	APIURL                string
	Token                 string
	RequiredConfirmations int
}

// LitecoinMonitor confirms LTC payments through the BlockCypher address endpoint.
type LitecoinMonitor struct {
	apiURL                string
	token                 string
	requiredConfirmations int
	client                *explorerClient
	logger                logger.Interface
}

func NewLitecoinMonitor(cfg LitecoinMonitorConfig, client *explorerClient, logger logger.Interface) *LitecoinMonitor {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = blockcypherLTCAPIURL
	}
	return &LitecoinMonitor{
		apiURL:                strings.TrimRight(apiURL, "/"),
		token:                 cfg.Token,
		requiredConfirmations: cfg.RequiredConfirmations,
		client:                client,
		logger:                logger,
	}
}

var _ oracle.PaymentOracle = (*LitecoinMonitor)(nil)

// CheckPayment looks for one incoming output to q.Address of at least q.MinAmount.
// Litecoin addresses are case-sensitive and used as given.
func (m *LitecoinMonitor) CheckPayment(ctx context.Context, q oracle.Query) (*oracle.Result, error) {
	if q.Asset != vo.AssetLTC {
		return nil, fmt.Errorf("LitecoinMonitor does not support asset %s", q.Asset)
	}

	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", blockcypherTxLimit))
	if m.token != "" {
		params.Set("token", m.token)
	}
	endpoint := fmt.Sprintf("%s/addrs/%s?%s", m.apiURL, url.PathEscape(q.Address), params.Encode())

	var resp blockcypherAddressResponse
	if err := m.client.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, oracle.Unavailable(fmt.Errorf("blockcypher error: %s", resp.Error))
	}

	minTime := q.Since.Add(-clockSkewBuffer)
	for _, ref := range resp.TxRefs {
		// tx_input_n is -1 for outputs paying the address
		if ref.TxInputN != -1 {
			continue
		}
		if !minTime.IsZero() && ref.Confirmed.Before(minTime) {
			continue
		}

		amount := decimal.New(ref.Value, -vo.AssetLTC.Decimals())
		if amount.LessThan(q.MinAmount) {
			continue
		}
		if ref.Confirmations < m.requiredConfirmations {
			m.logger.Infow("matching ltc output awaiting confirmations",
				"tx_hash", ref.TxHash,
				"confirmations", ref.Confirmations,
				"required", m.requiredConfirmations,
			)
			continue
		}

		m.logger.Infow("found matching ltc output",
			"tx_hash", ref.TxHash,
			"amount", amount.String(),
			"confirmations", ref.Confirmations,
		)
		return &oracle.Result{
			Paid:           true,
			TxReference:    ref.TxHash,
			ObservedAmount: amount,
			Confirmations:  ref.Confirmations,
			ObservedAt:     ref.Confirmed.UTC(),
		}, nil
	}

	if len(resp.UnconfirmedTxRefs) > 0 {
		m.logger.Debugw("address has unconfirmed transactions",
			"address", q.Address,
			"count", len(resp.UnconfirmedTxRefs),
		)
	}

	return oracle.NotPaid(), nil
}
