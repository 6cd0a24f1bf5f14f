package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cryptbill/cryptbill/internal/application/invoice/oracle"
	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

const (
	// Etherscan V2 API base URL (unified for all EVM chains)
	etherscanV2APIURL = "https://api.etherscan.io/v2/api"
	// Polygon chain ID for Etherscan V2 API
	polygonChainID = "137"
	// Maximum pages to scan to prevent DoS
	maxPolygonPages = 5
	// Results per page
	polygonPageSize = 200
)

// polygonscanResponse represents the Etherscan API envelope
type polygonscanResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  any    `json:"result"`
}

// polygonTokenTransfer represents an ERC-20 transfer from Etherscan
type polygonTokenTransfer struct {
	BlockNumber   string `json:"blockNumber"`
	TimeStamp     string `json:"timeStamp"`
	Hash          string `json:"hash"`
	From          string `json:"from"`
	To            string `json:"to"`
	Value         string `json:"value"`
	ContractAddr  string `json:"contractAddress"`
	TokenDecimal  string `json:"tokenDecimal"`
	Confirmations string `json:"confirmations"`
}

type PolygonMonitorConfig struct {
	APIURL                string
	APIKey                string
	USDTContract          string
	USDCContract          string
	RequiredConfirmations int
}

// PolygonMonitor confirms USDT and USDC payments on Polygon through Etherscan.
type PolygonMonitor struct {
	apiURL                string
	apiKey                string
	contracts             map[vo.Asset]string
	requiredConfirmations int
	client                *explorerClient
	logger                logger.Interface
}

func NewPolygonMonitor(cfg PolygonMonitorConfig, client *explorerClient, logger logger.Interface) *PolygonMonitor {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = etherscanV2APIURL
	}
	return &PolygonMonitor{
		apiURL: apiURL,
		apiKey: cfg.APIKey,
		contracts: map[vo.Asset]string{
			vo.AssetUSDT: strings.ToLower(cfg.USDTContract),
			vo.AssetUSDC: strings.ToLower(cfg.USDCContract),
		},
		requiredConfirmations: cfg.RequiredConfirmations,
		client:                client,
		logger:                logger,
	}
}

var _ oracle.PaymentOracle = (*PolygonMonitor)(nil)

// CheckPayment looks for one transfer of the asset's token to q.Address of at
// least q.MinAmount, no older than q.Since, with enough confirmations.
func (m *PolygonMonitor) CheckPayment(ctx context.Context, q oracle.Query) (*oracle.Result, error) {
	contract, ok := m.contracts[q.Asset]
	if !ok || contract == "" {
		return nil, fmt.Errorf("PolygonMonitor does not support asset %s", q.Asset)
	}

	// an unconfigured explorer can never prove absence of a payment
	if m.apiKey == "" {
		return nil, oracle.Unavailable(errors.New("etherscan api key not configured"))
	}

	toAddress := strings.ToLower(q.Address)
	minTime := q.Since.Add(-clockSkewBuffer)

	// Scan multiple pages with early termination when transactions become too old
	for page := 1; page <= maxPolygonPages; page++ {
		result, shouldStop, err := m.scanPage(ctx, contract, toAddress, q.MinAmount, minTime, page)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
		if shouldStop {
			break
		}
	}

	return oracle.NotPaid(), nil
}

// scanPage returns (result, shouldStop, error) where shouldStop indicates the scan went past the time window
func (m *PolygonMonitor) scanPage(ctx context.Context, contract, toAddress string, minAmount decimal.Decimal, minTime time.Time, page int) (*oracle.Result, bool, error) {
	transfers, err := m.fetchTokenTransfers(ctx, contract, toAddress, page)
	if err != nil {
		return nil, false, err
	}

	if len(transfers) == 0 {
		return nil, true, nil
	}

	for _, transfer := range transfers {
		if strings.ToLower(transfer.To) != toAddress || strings.ToLower(transfer.ContractAddr) != contract {
			continue
		}

		timestamp, _ := strconv.ParseInt(transfer.TimeStamp, 10, 64)
		txTime := time.Unix(timestamp, 0).UTC()

		// results are sorted desc, so everything after this one is older too
		if !minTime.IsZero() && txTime.Before(minTime) {
			m.logger.Debugw("stopping scan: transaction older than invoice",
				"tx_hash", transfer.Hash,
				"tx_time", txTime,
				"min_time", minTime,
			)
			return nil, true, nil
		}

		amount, err := parseTokenAmount(transfer.Value, transfer.TokenDecimal)
		if err != nil {
			m.logger.Warnw("failed to parse transaction amount",
				"tx_hash", transfer.Hash,
				"value", transfer.Value,
				"error", err,
			)
			continue
		}
		if amount.LessThan(minAmount) {
			continue
		}

		confirmations, _ := strconv.Atoi(transfer.Confirmations)
		if confirmations < m.requiredConfirmations {
			m.logger.Infow("matching transfer awaiting confirmations",
				"tx_hash", transfer.Hash,
				"confirmations", confirmations,
				"required", m.requiredConfirmations,
			)
			continue
		}

		m.logger.Infow("found matching token transfer",
			"tx_hash", transfer.Hash,
			"amount", amount.String(),
			"confirmations", confirmations,
			"tx_time", txTime,
		)

		return &oracle.Result{
			Paid:           true,
			TxReference:    transfer.Hash,
			ObservedAmount: amount,
			Confirmations:  confirmations,
			ObservedAt:     txTime,
		}, false, nil
	}

	return nil, false, nil
}

// fetchTokenTransfers fetches a page of token transfers from Etherscan API
func (m *PolygonMonitor) fetchTokenTransfers(ctx context.Context, contract, toAddress string, page int) ([]polygonTokenTransfer, error) {
	params := url.Values{}
	params.Set("chainid", polygonChainID)
	params.Set("module", "account")
	params.Set("action", "tokentx")
	params.Set("contractaddress", contract)
	params.Set("address", toAddress)
	params.Set("page", strconv.Itoa(page))
	params.Set("offset", strconv.Itoa(polygonPageSize))
	params.Set("sort", "desc")
	params.Set("apikey", m.apiKey)

	var apiResp polygonscanResponse
	if err := m.client.getJSON(ctx, m.apiURL+"?"+params.Encode(), &apiResp); err != nil {
		return nil, err
	}

	if apiResp.Status != "1" {
		if apiResp.Message == "No transactions found" {
			return nil, nil
		}
		// NOTOK typically means rate limited
		if resultStr, ok := apiResp.Result.(string); ok && resultStr != "" {
			return nil, oracle.Unavailable(fmt.Errorf("etherscan API error: %s", resultStr))
		}
		return nil, oracle.Unavailable(fmt.Errorf("etherscan API error: %s", apiResp.Message))
	}

	items, ok := apiResp.Result.([]any)
	if !ok {
		return nil, oracle.Unavailable(fmt.Errorf("unexpected etherscan result type %T", apiResp.Result))
	}

	transfers := make([]polygonTokenTransfer, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		transfers = append(transfers, polygonTokenTransfer{
			BlockNumber:   stringField(fields, "blockNumber"),
			TimeStamp:     stringField(fields, "timeStamp"),
			Hash:          stringField(fields, "hash"),
			From:          stringField(fields, "from"),
			To:            stringField(fields, "to"),
			Value:         stringField(fields, "value"),
			ContractAddr:  stringField(fields, "contractAddress"),
			TokenDecimal:  stringField(fields, "tokenDecimal"),
			Confirmations: stringField(fields, "confirmations"),
		})
	}

	return transfers, nil
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

// parseTokenAmount converts a raw integer amount in the token's smallest unit.
// The value from the API is already in smallest unit (e.g. "10123400" for 10.1234 USDT).
func parseTokenAmount(value, tokenDecimal string) (decimal.Decimal, error) {
	raw, ok := new(big.Int).SetString(value, 10)
	if !ok || raw.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("invalid amount: %s", value)
	}
	decimals, err := strconv.Atoi(tokenDecimal)
	if err != nil || decimals < 0 || decimals > 36 {
		return decimal.Zero, fmt.Errorf("invalid token decimals: %s", tokenDecimal)
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)), nil
}
