package models

import "time"

// DefaultUSDCAD is used when no FX quote is available.
const DefaultUSDCAD = 1.37

type HistoryPoint struct {
	Timestamp      Timestamp `json:"timestamp"`
	TotalValue     float64   `json:"total_value"`
	DailyChange    float64   `json:"daily_change"`
	DailyPercent   float64   `json:"daily_percent"`
	AllTimeGain    float64   `json:"all_time_gain"`
	AllTimePercent float64   `json:"all_time_percent"`
}

func (p *HistoryPoint) Validate() error {
	if p.Timestamp.IsZero() {
		return invalidf("history point without timestamp")
	}
	if !finite(p.TotalValue) {
		return invalidf("history point %s: non-finite value", p.Timestamp.Format(time.RFC3339))
	}
	return nil
}

// FXRate is the price of one USD in CAD.
type FXRate struct {
	USDCAD    float64   `json:"usdcad_rate"`
	Timestamp Timestamp `json:"timestamp"`
}

// Rate returns the quote or DefaultUSDCAD when the quote is unusable.
func (r FXRate) Rate() float64 {
	if !finite(r.USDCAD) || r.USDCAD <= 0 {
		return DefaultUSDCAD
	}
	return r.USDCAD
}

type SectorSlice struct {
	Sector     string  `json:"sector"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

type SectorAllocation struct {
	TotalValue float64       `json:"total_value"`
	Sectors    []SectorSlice `json:"sectors"`
}

func (s *SectorAllocation) Validate() error {
	if !finite(s.TotalValue) {
		return invalidf("sector allocation: non-finite total")
	}
	for _, sec := range s.Sectors {
		if !finite(sec.Value) {
			return invalidf("sector %q: non-finite value", sec.Sector)
		}
	}
	return nil
}
