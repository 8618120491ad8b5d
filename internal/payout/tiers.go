package payout

const (
	// MinQualifyingViews is the lowest chosen view count that earns a payout.
	MinQualifyingViews int64 = 1_000
	// ViewCap bounds the view count used for pricing.
	ViewCap int64 = 10_000_000
)

const (
	millionStepFloor  int64 = 6_000_000
	millionStepBase   int64 = 1_500
	millionStepAmount int64 = 150
)

// Tier is one band of the payout table. Max is inclusive.
type Tier struct {
	Min    int64 `json:"min_views"`
	Max    int64 `json:"max_views"`
	Amount int64 `json:"amount"`
}

var fixedTiers = []Tier{
	{Min: 0, Max: 999, Amount: 0},
	{Min: 1_000, Max: 9_999, Amount: 35},
	{Min: 10_000, Max: 49_999, Amount: 50},
	{Min: 50_000, Max: 99_999, Amount: 100},
	{Min: 100_000, Max: 249_999, Amount: 150},
	{Min: 250_000, Max: 499_999, Amount: 300},
	{Min: 500_000, Max: 999_999, Amount: 500},
	{Min: 1_000_000, Max: 1_999_999, Amount: 700},
	{Min: 2_000_000, Max: 2_999_999, Amount: 900},
	{Min: 3_000_000, Max: 3_999_999, Amount: 1_100},
	{Min: 4_000_000, Max: 4_999_999, Amount: 1_300},
	{Min: 5_000_000, Max: 5_999_999, Amount: 1_500},
}

// Tiers returns the full payout table, including the per-million bands
// between 6M and the cap.
func Tiers() []Tier {
	out := append([]Tier(nil), fixedTiers...)
	for floor := millionStepFloor; floor < ViewCap; floor += 1_000_000 {
		out = append(out, Tier{Min: floor, Max: floor + 999_999, Amount: Amount(floor)})
	}
	return append(out, Tier{Min: ViewCap, Max: ViewCap, Amount: Amount(ViewCap)})
}

// Amount prices an effective view count. Values are clamped to [0, ViewCap].
func Amount(effective int64) int64 {
	if effective < MinQualifyingViews {
		return 0
	}
	if effective > ViewCap {
		effective = ViewCap
	}
	if effective >= millionStepFloor {
		return millionStepBase + millionStepAmount*(effective/1_000_000-5)
	}
	for i := len(fixedTiers) - 1; i >= 0; i-- {
		if effective >= fixedTiers[i].Min {
			return fixedTiers[i].Amount
		}
	}
	return 0
}

// Outcome is the priced result for a chosen view count.
type Outcome struct {
	Chosen    int64  `json:"chosen_views"`
	Effective int64  `json:"effective_views"`
	Capped    bool   `json:"capped"`
	Payout    int64  `json:"payout"`
	Status    Status `json:"status"`
}

// Quote prices chosen views.
func Quote(chosen int64) Outcome {
	out := Outcome{Chosen: chosen, Effective: chosen, Status: StatusNotQualified}
	if out.Effective < 0 {
		out.Effective = 0
	}
	if chosen > ViewCap {
		out.Effective = ViewCap
		out.Capped = true
	}
	out.Payout = Amount(out.Effective)
	if chosen >= MinQualifyingViews {
		out.Status = StatusQualified
	}
	return out
}

// CapNote is the audit note attached to capped outcomes.
func (o Outcome) CapNote() string {
	if o.Capped {
		return "capped at 10M"
	}
	return ""
}
