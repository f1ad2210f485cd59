package client

import (
	"context"
	"errors"
	"fmt"
)

// Provider error codes reported by browser wallets.
const (
	CodeUserRejected = 4001 // User rejected the request in the wallet UI
	CodeChainUnknown = 4902 // Requested chain is not known to the wallet
)

// ProviderError is an error surfaced by the wallet provider.
type ProviderError struct {
	Code    int    // Provider error code
	Message string // Provider-supplied message
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return fmt.Sprintf("wallet provider error %d: %s", e.Code, e.Message)
}

// IsUserRejection reports whether the user rejected the request
func IsUserRejection(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == CodeUserRejected
}

// IsChainUnknown reports whether the wallet does not know the chain
func IsChainUnknown(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == CodeChainUnknown
}

// ChainDescriptor describes a network for the add-chain fallback.
type ChainDescriptor struct {
	ChainID          string   `json:"chainId"`   // Hex chain id
	ChainName        string   `json:"chainName"` // Display name
	RPCURLs          []string `json:"rpcUrls"`   // RPC endpoints
	CurrencyName     string   `json:"currencyName"`
	CurrencySymbol   string   `json:"currencySymbol"`
	CurrencyDecimals int      `json:"currencyDecimals"`
}

// TxParams are the transaction fields passed to the wallet.
type TxParams struct {
	From  string `json:"from"`  // Sending account
	To    string `json:"to"`    // Target contract address
	Value string `json:"value"` // Hex-encoded value in WEI
}

// WalletProvider is the browser-injected wallet seen as a pure
// interface. Every call may fail with a ProviderError; there is no
// timeout beyond the wallet's own UI.
type WalletProvider interface {
	RequestAccounts(ctx context.Context) ([]string, error)
	ChainID(ctx context.Context) (string, error)
	SwitchChain(ctx context.Context, chainID string) error
	AddChain(ctx context.Context, chain ChainDescriptor) error
	SendTransaction(ctx context.Context, params TxParams) (string, error)
}
