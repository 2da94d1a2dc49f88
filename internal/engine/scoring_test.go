package engine

import (
	"testing"

	"business_war/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScorePlayer(t *testing.T) {
	rules := domain.DefaultRules().Scoring
	p := domain.NewPlayer("p1", "alice", 1000, 5)
	p.AddItem("steel", 10)
	p.LockItem("steel", 4)
	p.AddItem("chip", 1)
	p.LockCash(300)
	p.Facilities = []*domain.Facility{
		domain.NewFacility(domain.FacilityMiner, 0, "Miner"),
		domain.NewFacility(domain.FacilityFactory, 2, "Fab"),
	}

	s := ScorePlayer(p, map[string]int64{"steel": 120, "chip": 600}, rules)

	assert.Equal(t, int64(10*120+600), s.InventoryValue, "locked units are counted")
	assert.Equal(t, int64(200+8000), s.FacilityValue)
	assert.Equal(t, int64(1000), s.Cash)
	assert.Equal(t, s.InventoryValue+s.FacilityValue+s.Cash, s.TotalScore)
}

func TestFinalScore(t *testing.T) {
	g := newTestGame(t)
	addPlayer(t, g, "first", 500, nil)
	addPlayer(t, g, "second", 500, nil)
	c := addPlayer(t, g, "third", 100, map[string]int64{"steel": 5})
	g.phase = domain.PhaseTrading
	submit(t, g, c, domain.SideAsk, "steel", 100, 5)

	rankings := g.FinalScore()
	require.Len(t, rankings, 3)

	assert.Equal(t, "third", rankings[0].Name, "100 cash + 5 × 100 steel")
	assert.Equal(t, []string{"first", "second"}, []string{rankings[1].Name, rankings[2].Name}, "ties keep registration order")
	assert.Equal(t, domain.PhaseEnded, g.Phase())
	assert.Equal(t, rankings, g.Rankings())
	requireNothingLocked(t, g)
}
