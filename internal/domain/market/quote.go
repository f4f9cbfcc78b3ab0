package market

import (
	"math/rand/v2"
	"time"
)

const (
	quoteBase  = 300.0
	quoteRange = 300.0
	dateLayout = "2006-01-02"
)

// Stock is a point-in-time quote for a company.
type Stock struct {
	CompanyName string  `json:"company_name"`
	Date        string  `json:"date"`
	Stock       float64 `json:"stock"`
}

// Quoter produces simulated quotes in [300, 600).
type Quoter struct {
	now    func() time.Time
	random func() float64
}

type QuoterOption func(*Quoter)

func WithClock(now func() time.Time) QuoterOption {
	return func(q *Quoter) { q.now = now }
}

// WithRandom replaces the [0, 1) source.
func WithRandom(random func() float64) QuoterOption {
	return func(q *Quoter) { q.random = random }
}

func NewQuoter(opts ...QuoterOption) *Quoter {
	q := &Quoter{now: time.Now, random: rand.Float64}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Quoter) Quote(companyName string) Stock {
	return Stock{
		CompanyName: companyName,
		Date:        q.now().Format(dateLayout),
		Stock:       quoteBase + q.random()*quoteRange,
	}
}
