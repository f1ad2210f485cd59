package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"applet_portal/internal/api"
	"applet_portal/internal/db"
	"applet_portal/internal/domain"
	"applet_portal/internal/realtime"
	"applet_portal/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeProvider scripts the browser wallet for flow tests.
type fakeProvider struct {
	mu       sync.Mutex
	chainID  string
	accounts []string

	switchErrs []error // Consumed in order; nil afterwards

	requestCalls int
	switchCalls  int
	addCalls     int
	sendCalls    int
	sendErr      error
}

func (p *fakeProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requestCalls++
	return p.accounts, nil
}

func (p *fakeProvider) ChainID(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chainID, nil
}

func (p *fakeProvider) SwitchChain(ctx context.Context, chainID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.switchCalls++
	if len(p.switchErrs) > 0 {
		err := p.switchErrs[0]
		p.switchErrs = p.switchErrs[1:]
		if err != nil {
			return err
		}
	}
	p.chainID = chainID
	return nil
}

func (p *fakeProvider) AddChain(ctx context.Context, chain ChainDescriptor) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addCalls++
	return nil
}

func (p *fakeProvider) SendTransaction(ctx context.Context, params TxParams) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sendCalls++
	if p.sendErr != nil {
		return "", p.sendErr
	}
	return "0xtxhash", nil
}

func newHealthyProvider() *fakeProvider {
	return &fakeProvider{
		chainID:  DefaultTargetChain.ChainID,
		accounts: []string{"0xABC"},
	}
}

type portalEnv struct {
	server *httptest.Server
	db     *gorm.DB
	hub    *realtime.Hub
}

// newPortalEnv runs a full backend for the flow to talk to.
func newPortalEnv(t *testing.T, resolver service.Resolver) *portalEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(&domain.User{}, &domain.Applet{}, &domain.Execution{}, &domain.Settings{}))
	require.NoError(t, db.Seed(gdb))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	hub := realtime.NewHub()
	svc := service.NewExecutionService(gdb, hub,
		service.WithSettleDelay(100*time.Millisecond),
		service.WithResolver(resolver),
	)
	router := api.NewRouter(gdb, rdb, svc, hub, api.RouterOptions{JWTSecret: "test-secret"})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &portalEnv{server: server, db: gdb, hub: hub}
}

func (e *portalEnv) socketURL() string {
	return "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws"
}

func succeedAlways(*domain.Execution) string { return domain.StatusSuccess }
func failAlways(*domain.Execution) string    { return domain.StatusFailed }

func login(t *testing.T, a *API, wallet string) {
	t.Helper()
	_, err := a.Login(context.Background(), wallet)
	require.NoError(t, err)
}

func catalogApplet(t *testing.T, a *API, id string) domain.Applet {
	t.Helper()
	applet, err := a.Applet(context.Background(), id)
	require.NoError(t, err)
	return *applet
}

func waitForState(t *testing.T, inv *Invoker, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if inv.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("flow never reached state %s, stuck at %s", want, inv.State())
}

func TestExecuteGasGuard(t *testing.T) {
	env := newPortalEnv(t, service.ResolverFunc(succeedAlways))
	session := &Session{}
	apiClient := NewAPI(env.server.URL, session)
	login(t, apiClient, "0xABC")

	settings := domain.DefaultSettings(0)
	settings.MaxGasPrice = 100 // Below applet-1's 250 gas cost
	_, err := apiClient.SaveSettings(context.Background(), settings)
	require.NoError(t, err)

	provider := newHealthyProvider()
	var notices []Notice
	inv := NewInvoker(provider, apiClient, session, WithNoticeFunc(func(n Notice) {
		notices = append(notices, n)
	}))

	applet := catalogApplet(t, apiClient, "applet-1")
	err = inv.Execute(context.Background(), applet)
	assert.ErrorIs(t, err, ErrGasLimitExceeded)
	assert.Equal(t, StateIdle, inv.State())
	assert.Zero(t, provider.sendCalls) // Wallet never touched

	require.Len(t, notices, 1)
	assert.Equal(t, "Gas Limit Exceeded", notices[0].Title)

	var count int64
	require.NoError(t, env.db.Model(&domain.Execution{}).Count(&count).Error)
	assert.Zero(t, count) // Nothing reached the server
}

func TestExecuteUserRejection(t *testing.T) {
	env := newPortalEnv(t, service.ResolverFunc(succeedAlways))
	session := &Session{}
	apiClient := NewAPI(env.server.URL, session)
	login(t, apiClient, "0xABC")

	provider := newHealthyProvider()
	provider.sendErr = &ProviderError{Code: CodeUserRejected, Message: "User denied transaction signature."}
	var notices []Notice
	inv := NewInvoker(provider, apiClient, session, WithNoticeFunc(func(n Notice) {
		notices = append(notices, n)
	}))

	applet := catalogApplet(t, apiClient, "applet-1")
	err := inv.Execute(context.Background(), applet)
	assert.True(t, IsUserRejection(err))
	assert.Equal(t, StateIdle, inv.State())

	require.Len(t, notices, 1)
	assert.Equal(t, "Transaction Rejected", notices[0].Title)

	var count int64
	require.NoError(t, env.db.Model(&domain.Execution{}).Count(&count).Error)
	assert.Zero(t, count) // Rejection never reaches the server
}

func TestExecuteAddsUnknownChain(t *testing.T) {
	env := newPortalEnv(t, service.ResolverFunc(succeedAlways))
	session := &Session{}
	apiClient := NewAPI(env.server.URL, session)
	login(t, apiClient, "0xABC")

	provider := newHealthyProvider()
	provider.chainID = "0x1" // Wrong network; first switch reports it unknown
	provider.switchErrs = []error{&ProviderError{Code: CodeChainUnknown, Message: "Unrecognized chain ID."}}

	inv := NewInvoker(provider, apiClient, session,
		WithFallbackDelay(20*time.Millisecond),
		WithDisplayDelay(time.Hour),
	)

	applet := catalogApplet(t, apiClient, "applet-1")
	require.NoError(t, inv.Execute(context.Background(), applet))
	assert.Equal(t, StateSuccess, inv.State())
	assert.Equal(t, 1, provider.addCalls)
	assert.Equal(t, 2, provider.switchCalls)
	assert.Equal(t, DefaultTargetChain.ChainID, provider.chainID)
}

func TestExecuteOptimisticFallback(t *testing.T) {
	env := newPortalEnv(t, service.ResolverFunc(succeedAlways))
	session := &Session{}
	apiClient := NewAPI(env.server.URL, session)
	login(t, apiClient, "0xABC")

	var states []State
	var mu sync.Mutex
	inv := NewInvoker(newHealthyProvider(), apiClient, session,
		WithFallbackDelay(20*time.Millisecond),
		WithDisplayDelay(30*time.Millisecond),
		WithStateFunc(func(s State) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		}),
	)

	applet := catalogApplet(t, apiClient, "applet-1")
	require.NoError(t, inv.Execute(context.Background(), applet))
	assert.Equal(t, StateSuccess, inv.State())
	waitForState(t, inv, StateIdle) // Returns to idle after the display delay

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateExecuting, StateSuccess, StateIdle}, states)
}

func TestExecuteWithLiveSocket(t *testing.T) {
	env := newPortalEnv(t, service.ResolverFunc(succeedAlways))
	session := &Session{}
	apiClient := NewAPI(env.server.URL, session)
	login(t, apiClient, "0xABC")

	socket, err := DialSocket(context.Background(), env.socketURL())
	require.NoError(t, err)
	defer socket.Close()

	inv := NewInvoker(newHealthyProvider(), apiClient, session,
		WithSocket(socket),
		WithDisplayDelay(time.Hour),
	)

	applet := catalogApplet(t, apiClient, "applet-1")
	require.NoError(t, inv.Execute(context.Background(), applet))
	assert.Equal(t, StateSuccess, inv.State())

	// The server settled it for real
	executions, err := apiClient.Executions(context.Background())
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, domain.StatusSuccess, executions[0].Status)
	assert.Equal(t, "applet-1", executions[0].Applet.ID)
}

func TestExecuteFailedSettlement(t *testing.T) {
	env := newPortalEnv(t, service.ResolverFunc(failAlways))
	session := &Session{}
	apiClient := NewAPI(env.server.URL, session)
	login(t, apiClient, "0xABC")

	socket, err := DialSocket(context.Background(), env.socketURL())
	require.NoError(t, err)
	defer socket.Close()

	inv := NewInvoker(newHealthyProvider(), apiClient, session, WithSocket(socket))

	applet := catalogApplet(t, apiClient, "applet-1")
	err = inv.Execute(context.Background(), applet)
	assert.ErrorIs(t, err, ErrExecutionFailed)
	assert.Equal(t, StateError, inv.State())

	// Retry restarts the flow from the top
	err = inv.Execute(context.Background(), applet)
	assert.ErrorIs(t, err, ErrExecutionFailed)
}

func TestExecuteSingleWinnerUnderContention(t *testing.T) {
	// A backend whose settings read stalls keeps both callers inside the
	// gas guard at once; exactly one may go on to touch the wallet
	mux := http.NewServeMux()
	mux.HandleFunc("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(domain.DefaultSettings(1))
	})
	mux.HandleFunc("/api/executions", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.Execution{ID: "exec-1", Status: domain.StatusPending})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	session := &Session{WalletAddress: "0xABC"}
	apiClient := NewAPI(server.URL, session)
	provider := newHealthyProvider()
	inv := NewInvoker(provider, apiClient, session,
		WithFallbackDelay(10*time.Millisecond),
		WithDisplayDelay(time.Hour),
	)

	applet := domain.Applet{ID: "applet-1", GasCost: 250}
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { errs <- inv.Execute(context.Background(), applet) }()
	}

	busy := 0
	for i := 0; i < 2; i++ {
		if err := <-errs; errors.Is(err, ErrBusy) {
			busy++
		} else {
			assert.NoError(t, err)
		}
	}
	assert.Equal(t, 1, busy)
	assert.Equal(t, 1, provider.sendCalls) // Only one transaction went out
}

func TestExecuteRejectsConcurrentRuns(t *testing.T) {
	env := newPortalEnv(t, service.ResolverFunc(succeedAlways))
	session := &Session{}
	apiClient := NewAPI(env.server.URL, session)
	login(t, apiClient, "0xABC")

	started := make(chan struct{})
	release := make(chan struct{})
	inv := NewInvoker(newHealthyProvider(), apiClient, session,
		WithFallbackDelay(time.Hour),
		WithStateFunc(func(s State) {
			if s == StateExecuting {
				close(started)
			}
		}),
	)

	applet := catalogApplet(t, apiClient, "applet-1")
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = inv.Execute(ctx, applet)
		close(release)
	}()

	<-started
	err := inv.Execute(context.Background(), applet)
	assert.ErrorIs(t, err, ErrBusy)

	cancel()
	<-release
}
