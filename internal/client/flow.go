package client

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"time"

	"applet_portal/internal/domain"
)

// Execution flow states. The flow is a strict state machine: idle →
// executing → success|error, with error → executing on manual retry.
// The authoritative record lives server-side; these states only drive
// the local display.
type State string

const (
	StateIdle      State = "idle"
	StateExecuting State = "executing"
	StateSuccess   State = "success"
	StateError     State = "error"
)

// Flow errors.
var (
	ErrGasLimitExceeded = errors.New("applet gas cost exceeds configured max gas price")
	ErrNoAccount        = errors.New("no wallet account detected")
	ErrBusy             = errors.New("an invocation is already in progress")
	ErrExecutionFailed  = errors.New("execution failed")
)

// DefaultContractAddress receives the fee when an applet has no
// deployed contract of its own.
const DefaultContractAddress = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

// DefaultTargetChain is the local development chain the portal runs
// against (chain id 1337).
var DefaultTargetChain = ChainDescriptor{
	ChainID:          "0x539",
	ChainName:        "Localhost 8545",
	RPCURLs:          []string{"http://localhost:8545"},
	CurrencyName:     "ETH",
	CurrencySymbol:   "ETH",
	CurrencyDecimals: 18,
}

// Notice is a transient user-facing notification.
type Notice struct {
	Title  string // Short headline
	Detail string // Supporting detail, often provider-supplied
}

// Invoker drives one applet invocation end to end: gas guard, chain
// check/switch, wallet transaction, execution creation and status
// subscription.
type Invoker struct {
	provider WalletProvider // Browser-injected wallet
	api      *API           // Portal REST client
	socket   *Socket        // Live status channel; nil uses the optimistic fallback
	session  *Session       // Explicit session context
	target   ChainDescriptor

	displayDelay  time.Duration // Success display time before returning to idle
	fallbackDelay time.Duration // Optimistic wait when no live channel exists

	mu       sync.Mutex
	state    State
	onState  func(State)  // State transition callback
	onNotice func(Notice) // Transient notification callback
}

// InvokerOption customizes an Invoker.
type InvokerOption func(*Invoker)

// WithSocket attaches a live status channel
func WithSocket(s *Socket) InvokerOption {
	return func(inv *Invoker) { inv.socket = s }
}

// WithTargetChain overrides the expected wallet network
func WithTargetChain(chain ChainDescriptor) InvokerOption {
	return func(inv *Invoker) { inv.target = chain }
}

// WithStateFunc observes state transitions
func WithStateFunc(f func(State)) InvokerOption {
	return func(inv *Invoker) { inv.onState = f }
}

// WithNoticeFunc observes transient notifications
func WithNoticeFunc(f func(Notice)) InvokerOption {
	return func(inv *Invoker) { inv.onNotice = f }
}

// WithDisplayDelay overrides the success display time
func WithDisplayDelay(d time.Duration) InvokerOption {
	return func(inv *Invoker) { inv.displayDelay = d }
}

// WithFallbackDelay overrides the optimistic fallback wait
func WithFallbackDelay(d time.Duration) InvokerOption {
	return func(inv *Invoker) { inv.fallbackDelay = d }
}

// NewInvoker creates an invocation flow for the session's wallet
func NewInvoker(provider WalletProvider, api *API, session *Session, opts ...InvokerOption) *Invoker {
	inv := &Invoker{
		provider:      provider,
		api:           api,
		session:       session,
		target:        DefaultTargetChain,
		displayDelay:  2 * time.Second,
		fallbackDelay: 3 * time.Second,
		state:         StateIdle,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// State returns the current flow state.
func (inv *Invoker) State() State {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.state
}

func (inv *Invoker) setState(s State) {
	inv.mu.Lock()
	inv.state = s
	inv.mu.Unlock()
	if inv.onState != nil {
		inv.onState(s)
	}
}

// begin claims the executing state. Exactly one concurrent caller wins;
// the rest see false and must not touch the wallet.
func (inv *Invoker) begin() bool {
	inv.mu.Lock()
	if inv.state == StateExecuting {
		inv.mu.Unlock()
		return false
	}
	inv.state = StateExecuting
	inv.mu.Unlock()
	if inv.onState != nil {
		inv.onState(StateExecuting)
	}
	return true
}

func (inv *Invoker) notify(n Notice) {
	if inv.onNotice != nil {
		inv.onNotice(n)
	}
}

// Execute runs the full invocation flow for the applet. Retrying from
// the error state restarts the flow from the top.
func (inv *Invoker) Execute(ctx context.Context, applet domain.Applet) error {
	inv.mu.Lock()
	if inv.state == StateExecuting {
		inv.mu.Unlock()
		return ErrBusy
	}
	inv.mu.Unlock()

	// Gas-limit guard: reject locally, no state change, no server call
	if settings, err := inv.api.Settings(ctx); err == nil && applet.GasCost > settings.MaxGasPrice {
		inv.notify(Notice{
			Title:  "Gas Limit Exceeded",
			Detail: "Applet gas cost exceeds your max gas price setting.",
		})
		return ErrGasLimitExceeded
	}

	// Re-check under the same lock that claims the state; the guard
	// above runs unlocked and a second caller may have started since
	if !inv.begin() {
		return ErrBusy
	}

	account, err := inv.prepareWallet(ctx, applet)
	if err != nil {
		// Wallet failures return the flow to idle; only a manual retry restarts it
		inv.setState(StateIdle)
		return err
	}

	execution, err := inv.api.CreateExecution(ctx, applet.ID, account)
	if err != nil {
		inv.setState(StateError)
		return err
	}

	if inv.socket == nil {
		// No live channel: optimistic fixed-delay success
		select {
		case <-time.After(inv.fallbackDelay):
		case <-ctx.Done():
			inv.setState(StateError)
			return ctx.Err()
		}
		inv.succeed()
		return nil
	}

	if err := inv.socket.JoinRoom(inv.session.WalletAddress); err != nil {
		inv.setState(StateError)
		return err
	}
	return inv.awaitSettlement(ctx, execution.ID)
}

// prepareWallet verifies the network, picks the active account and
// submits the fee transaction. Returns the account used.
func (inv *Invoker) prepareWallet(ctx context.Context, applet domain.Applet) (string, error) {
	if err := inv.ensureChain(ctx); err != nil {
		inv.notify(Notice{Title: "Network Error", Detail: providerDetail(err)})
		return "", err
	}

	accounts, err := inv.provider.RequestAccounts(ctx)
	if err != nil {
		inv.notify(Notice{Title: "Wallet Error", Detail: providerDetail(err)})
		return "", err
	}
	if len(accounts) == 0 {
		inv.notify(Notice{Title: "Wallet Error", Detail: "No wallet account detected."})
		return "", ErrNoAccount
	}
	account := accounts[0]

	to := applet.ContractHash
	if to == "" {
		to = DefaultContractAddress
	}
	params := TxParams{
		From:  account,
		To:    to,
		Value: "0x" + strconv.FormatInt(int64(math.Floor(applet.GasCost)), 16),
	}
	if _, err := inv.provider.SendTransaction(ctx, params); err != nil {
		if IsUserRejection(err) {
			// Terminal locally, silent to the server
			inv.notify(Notice{
				Title:  "Transaction Rejected",
				Detail: "You rejected the transaction in your wallet.",
			})
		} else {
			inv.notify(Notice{Title: "Transaction Failed", Detail: providerDetail(err)})
		}
		return "", err
	}
	return account, nil
}

// ensureChain switches the wallet to the target network, adding it
// first when the wallet reports it unknown.
func (inv *Invoker) ensureChain(ctx context.Context) error {
	current, err := inv.provider.ChainID(ctx)
	if err != nil {
		return err
	}
	if current == inv.target.ChainID {
		return nil
	}
	if err := inv.provider.SwitchChain(ctx, inv.target.ChainID); err != nil {
		if !IsChainUnknown(err) {
			return err
		}
		if err := inv.provider.AddChain(ctx, inv.target); err != nil {
			return err
		}
		return inv.provider.SwitchChain(ctx, inv.target.ChainID)
	}
	return nil
}

// awaitSettlement tracks the execution until its terminal event arrives
func (inv *Invoker) awaitSettlement(ctx context.Context, executionID string) error {
	for {
		select {
		case update, ok := <-inv.socket.Updates():
			if !ok {
				inv.setState(StateError)
				return ErrExecutionFailed
			}
			if update.ID != executionID || !update.Terminal() {
				continue // Not ours, or still pending
			}
			if update.Status == domain.StatusSuccess {
				inv.succeed()
				return nil
			}
			inv.setState(StateError)
			return ErrExecutionFailed
		case <-ctx.Done():
			inv.setState(StateError)
			return ctx.Err()
		}
	}
}

// succeed shows the success state and returns to idle after the
// display delay.
func (inv *Invoker) succeed() {
	inv.setState(StateSuccess)
	time.AfterFunc(inv.displayDelay, func() {
		inv.mu.Lock()
		stillSuccess := inv.state == StateSuccess
		inv.mu.Unlock()
		if stillSuccess {
			inv.setState(StateIdle)
		}
	})
}

// providerDetail prefers the provider-supplied message when available
func providerDetail(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return err.Error()
}
