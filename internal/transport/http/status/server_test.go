package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurex/internal/account"
	"aurex/internal/config"
	"aurex/internal/contract"
	"aurex/internal/decision"
	"aurex/internal/executor"
	"aurex/internal/kernel"
	"aurex/internal/market"
	"aurex/internal/oracle"
	"aurex/internal/risk"
	"aurex/internal/sizing"
	"aurex/internal/venue"
)

type staticProvider struct{}

func (staticProvider) Briefing(symbol string) (market.Briefing, bool) {
	return market.Briefing{Symbol: symbol, LastPrice: 550.0, ATR: 1.0, BarCount: 50}, true
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	spec := contract.Spec{Symbol: "au2512", Multiplier: 1000, PriceTick: 0.02, MinLots: 1, MarginRatioLong: 0.14, MarginRatioShort: 0.14}
	rules := config.Rulebook{MaxPositionPct: 0.6, MandatoryStopLoss: true}
	riskCfg := config.RiskConfig{MinStopTicks: 10, ReentryCooldownSeconds: 120}
	clock, err := risk.NewSessionClock(config.SessionConfig{DayClose: "14:55:00", NightClose: "02:25:00", RolloverHour: 21})
	require.NoError(t, err)

	exec := executor.New(
		spec,
		sizing.NewSizer(config.SizingConfig{MarginBuffer: 1.05, MinGuaranteeRatio: 1.3}),
		risk.NewStopGuard(riskCfg),
		risk.NewCooldownTracker(riskCfg),
		account.NewEstimator(2_000_000),
		venue.NewPaper(),
	)
	reg, err := decision.NewSchemaRegistry("")
	require.NoError(t, err)
	pool := oracle.NewKeyPool([]string{"k"})
	disp := oracle.NewDispatcher(
		config.OracleConfig{MinBars: 1 << 20},
		rules, pool,
		oracle.NewClient("http://127.0.0.1:0", "m", 0, time.Second),
		decision.NewParser(reg),
		staticProvider{},
	)
	k := kernel.New(spec, decision.NewGate(rules), exec, risk.NewHeartbeat(clock, rules), disp, staticProvider{}, nil)
	eng, err := kernel.NewEngine([]*kernel.Kernel{k})
	require.NoError(t, err)

	srv, err := NewServer(ServerConfig{Engine: eng, Pool: pool})
	require.NoError(t, err)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPositionsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/positions", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var sts []kernel.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sts))
	require.Len(t, sts, 1)
	assert.Equal(t, "au2512", sts[0].Symbol)
	assert.InDelta(t, 2_000_000, sts[0].Account.Equity, 1e-6)
}

func TestPositionBySymbol(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/positions/au2512", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/positions/rb2601", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOracleEndpoint(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/oracle", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body["idle_keys"])
}

func TestDecisionsDisabledWithoutStore(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/decisions", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}
