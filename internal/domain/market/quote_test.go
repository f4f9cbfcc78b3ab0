package market_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/matiasleandrokruk/toolhost/internal/domain/market"
)

func TestQuoter_Quote_Deterministic(t *testing.T) {
	t.Parallel()

	q := market.NewQuoter(
		market.WithClock(func() time.Time { return time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC) }),
		market.WithRandom(func() float64 { return 0.25 }),
	)

	assert.Equal(t, market.Stock{CompanyName: "OCP", Date: "2026-03-09", Stock: 375}, q.Quote("OCP"))
}

func TestQuoter_Quote_Range(t *testing.T) {
	t.Parallel()

	q := market.NewQuoter()
	for i := 0; i < 200; i++ {
		s := q.Quote("Maroc Telecom")
		assert.GreaterOrEqual(t, s.Stock, 300.0)
		assert.Less(t, s.Stock, 600.0)
		assert.Equal(t, "Maroc Telecom", s.CompanyName)
		_, err := time.Parse("2006-01-02", s.Date)
		assert.NoError(t, err)
	}
}
