package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"business_war/internal/domain"
	"business_war/internal/engine"
	"business_war/internal/infra"
	"business_war/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, repo domain.ReportRepository) (http.Handler, *engine.Game) {
	t.Helper()
	g := newGame(t, 2)
	_, err := g.RegisterPlayer("alice")
	require.NoError(t, err)

	board := service.NewPriceBoard(5)
	board.Apply(engine.PhaseReport{Turn: 1, Phase: domain.PhaseSettlement, Prices: g.Prices()})

	reg := prometheus.NewRegistry()
	m := infra.NewMetrics()
	require.NoError(t, m.Register(reg))
	m.OrderAccepted("BID")

	return NewRouter(Handlers{Game: g, Board: board, Repo: repo, Gatherer: reg}), g
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRouter_Health(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRouter_State(t *testing.T) {
	h, g := newTestRouter(t, nil)
	rec := get(t, h, "/state")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap engine.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, g.ID(), snap.GameID)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, "alice", snap.Players[0].Name)
}

func TestRouter_Prices(t *testing.T) {
	h, g := newTestRouter(t, nil)

	rec := get(t, h, "/prices")
	require.Equal(t, http.StatusOK, rec.Code)
	var quotes []service.ItemQuote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quotes))
	assert.Len(t, quotes, len(g.Prices()))

	rec = get(t, h, "/prices/sand")
	require.Equal(t, http.StatusOK, rec.Code)
	var q service.ItemQuote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.Equal(t, "sand", q.ItemID)
	assert.Equal(t, int64(100), q.Price)

	rec = get(t, h, "/prices/unobtainium")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Rankings(t *testing.T) {
	h, g := newTestRouter(t, nil)
	g.FinalScore()

	rec := get(t, h, "/rankings")
	require.Equal(t, http.StatusOK, rec.Code)
	var rankings []engine.Ranking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rankings))
	require.Len(t, rankings, 1)
	assert.Equal(t, "alice", rankings[0].Name)
}

func TestRouter_History(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/history/sand").Code, "no route without a repository")

	store := newStorage(t)
	require.NoError(t, store.SaveTurn(context.Background(),
		&domain.TurnRecord{GameID: "g-test", Turn: 1, Phase: "SETTLEMENT"},
		[]domain.PricePoint{{GameID: "g-test", ItemID: "sand", Turn: 1, Price: 110, Volume: 3}}))

	h, _ = newTestRouter(t, store)
	rec := get(t, h, "/history/sand")
	require.Equal(t, http.StatusOK, rec.Code)
	var points []domain.PricePoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
	require.Len(t, points, 1)
	assert.Equal(t, int64(110), points[0].Price)
}

func TestRouter_Metrics(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "business_war_market_orders_accepted_total")
}

func TestRouter_AdminReset(t *testing.T) {
	g := newGame(t, 3)
	sim, err := NewSimulator(g, []string{"value", "random"}, 4, engine.NewRand(3), nil, discardLogger())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := sim.Step(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, 2, g.Turn())

	h := NewRouter(Handlers{Game: g, Board: service.NewPriceBoard(5), Reset: sim.Restart})

	assert.Equal(t, http.StatusMethodNotAllowed, get(t, h, "/admin/reset").Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap engine.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 1, snap.Turn)
	assert.Equal(t, "NEWS", snap.Phase)
	assert.Len(t, snap.Players, 2, "bots are registered again")
}
