package tracker

import "github.com/okian/bullpen/internal/domain/model"

// Neutral pitcher features reported before any innings are observed.
const (
	NeutralERA  = 4.50
	NeutralWHIP = 1.35
)

// PitcherFeatures are career rate stats.
type PitcherFeatures struct {
	ERA  float64 `json:"era"`
	WHIP float64 `json:"whip"`
}

// PitcherOption configures a Pitcher.
type PitcherOption func(*Pitcher)

// WithNeutral overrides the placeholder ERA and WHIP.
func WithNeutral(era, whip float64) PitcherOption {
	return func(p *Pitcher) {
		if era > 0 && whip > 0 {
			p.neutral = PitcherFeatures{ERA: era, WHIP: whip}
		}
	}
}

// Pitcher accumulates a career line across seasons.
type Pitcher struct {
	outs       int
	earnedRuns int
	walks      int
	hits       int
	starts     int

	neutral PitcherFeatures
}

// NewPitcher returns an empty tracker.
func NewPitcher(opts ...PitcherOption) *Pitcher {
	p := &Pitcher{neutral: PitcherFeatures{ERA: NeutralERA, WHIP: NeutralWHIP}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RecordStart adds one start. A malformed innings value contributes zero
// innings; the other counts still accumulate.
func (p *Pitcher) RecordStart(line model.PitchingLine) {
	outs, _ := ParseInnings(line.InningsPitched)
	p.outs += outs
	p.earnedRuns += nonNegative(line.EarnedRuns)
	p.walks += nonNegative(line.Walks)
	p.hits += nonNegative(line.Hits)
	p.starts++
}

// Features derives ERA and WHIP, or the neutral values with no innings.
func (p *Pitcher) Features() PitcherFeatures {
	if p.outs == 0 {
		return p.neutral
	}
	ip := InningsFromOuts(p.outs)
	return PitcherFeatures{
		ERA:  Round(9*float64(p.earnedRuns)/ip, PitchPlaces),
		WHIP: Round(float64(p.walks+p.hits)/ip, PitchPlaces),
	}
}

// InningsPitched returns career innings as a fraction.
func (p *Pitcher) InningsPitched() float64 { return InningsFromOuts(p.outs) }

// Starts returns the number of recorded starts.
func (p *Pitcher) Starts() int { return p.starts }
