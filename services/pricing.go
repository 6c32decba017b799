// Package services provides the proposal pricing engine, installment and
// calendar helpers, merge-mapping assembly and document generation.
package services

import (
	"fmt"
	"math"
	"slices"

	"github.com/shopspring/decimal"
)

// PageBucket maps page counts up to and including MaxPages to a situation
// label and page multiplier. The last bucket of a schedule catches every
// page count above the previous bound, whatever its MaxPages.
type PageBucket struct {
	MaxPages   int
	Label      string
	Multiplier decimal.Decimal
}

// FolderThreshold applies Multiplier when the folder count is strictly
// greater than Above.
type FolderThreshold struct {
	Above      int
	Multiplier decimal.Decimal
}

// DiscountTier grants Rate to contracts of at least MinMonths.
type DiscountTier struct {
	MinMonths int             `json:"min_months"`
	Rate      decimal.Decimal `json:"rate"`
}

// PricingSchedule is the full set of constant tables the calculator prices
// against. A calculator never mutates its schedule.
type PricingSchedule struct {
	BaseMonthlyRate      decimal.Decimal
	PageBuckets          []PageBucket
	FolderThresholds     []FolderThreshold
	BaseFolderMultiplier decimal.Decimal
	DiscountTiers        []DiscountTier
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DefaultPricingSchedule returns the 2026 price list.
func DefaultPricingSchedule() PricingSchedule {
	return PricingSchedule{
		BaseMonthlyRate: d("1097.00"),
		PageBuckets: []PageBucket{
			{MaxPages: 200, Label: "A", Multiplier: d("1.00")},
			{MaxPages: 400, Label: "B", Multiplier: d("1.25")},
			{MaxPages: 600, Label: "C", Multiplier: d("1.45")},
			{MaxPages: 800, Label: "D", Multiplier: d("1.65")},
			{MaxPages: 1000, Label: "E", Multiplier: d("1.85")},
			{MaxPages: math.MaxInt, Label: "F", Multiplier: d("2.00")},
		},
		FolderThresholds: []FolderThreshold{
			{Above: 90, Multiplier: d("1.60")},
			{Above: 80, Multiplier: d("1.50")},
			{Above: 70, Multiplier: d("1.45")},
			{Above: 60, Multiplier: d("1.40")},
			{Above: 50, Multiplier: d("1.35")},
			{Above: 40, Multiplier: d("1.30")},
			{Above: 30, Multiplier: d("1.25")},
			{Above: 20, Multiplier: d("1.20")},
			{Above: 10, Multiplier: d("1.10")},
		},
		BaseFolderMultiplier: d("1.00"),
		DiscountTiers: []DiscountTier{
			{MinMonths: 12, Rate: d("0.00")},
			{MinMonths: 24, Rate: d("0.07")},
			{MinMonths: 36, Rate: d("0.14")},
			{MinMonths: 48, Rate: d("0.22")},
			{MinMonths: 60, Rate: d("0.27")},
			{MinMonths: 72, Rate: d("0.31")},
			{MinMonths: 84, Rate: d("0.35")},
			{MinMonths: 96, Rate: d("0.40")},
			{MinMonths: 108, Rate: d("0.43")},
			{MinMonths: 120, Rate: d("0.45")},
		},
	}
}

// Validate checks that the schedule can produce non-negative savings:
// ascending tiers with rates in [0,1] that never decrease with duration.
func (s PricingSchedule) Validate() error {
	if !s.BaseMonthlyRate.IsPositive() {
		return fmt.Errorf("pricing schedule: base monthly rate must be positive")
	}
	if len(s.PageBuckets) == 0 {
		return fmt.Errorf("pricing schedule: at least one page bucket is required")
	}
	if len(s.DiscountTiers) == 0 {
		return fmt.Errorf("pricing schedule: at least one discount tier is required")
	}
	if !s.BaseFolderMultiplier.IsPositive() {
		return fmt.Errorf("pricing schedule: base folder multiplier must be positive")
	}
	for i, b := range s.PageBuckets {
		if !b.Multiplier.IsPositive() {
			return fmt.Errorf("pricing schedule: page bucket %q has non-positive multiplier", b.Label)
		}
		if i > 0 && b.MaxPages <= s.PageBuckets[i-1].MaxPages {
			return fmt.Errorf("pricing schedule: page buckets must be ascending (bucket %q)", b.Label)
		}
	}
	for _, f := range s.FolderThresholds {
		if !f.Multiplier.IsPositive() {
			return fmt.Errorf("pricing schedule: folder threshold >%d has non-positive multiplier", f.Above)
		}
	}
	one := decimal.NewFromInt(1)
	for i, t := range s.DiscountTiers {
		if t.Rate.IsNegative() || t.Rate.GreaterThan(one) {
			return fmt.Errorf("pricing schedule: tier %d months has rate %s outside [0,1]", t.MinMonths, t.Rate)
		}
		if i == 0 {
			continue
		}
		prev := s.DiscountTiers[i-1]
		if t.MinMonths <= prev.MinMonths {
			return fmt.Errorf("pricing schedule: discount tiers must be ascending (%d after %d)", t.MinMonths, prev.MinMonths)
		}
		if t.Rate.LessThan(prev.Rate) {
			return fmt.Errorf("pricing schedule: discount rate decreases at %d months", t.MinMonths)
		}
	}
	return nil
}

// PriceFactors are the volume-derived multipliers of a quote.
type PriceFactors struct {
	Situation        string          `json:"situation"`
	PageMultiplier   decimal.Decimal `json:"page_multiplier"`
	FolderMultiplier decimal.Decimal `json:"folder_multiplier"`
}

// PriceResult is the itemized price of one (volume, duration) pair.
type PriceResult struct {
	Situation           string          `json:"situation"`
	PageMultiplier      decimal.Decimal `json:"page_multiplier"`
	FolderMultiplier    decimal.Decimal `json:"folder_multiplier"`
	DurationMonths      int             `json:"duration_months"`
	BaseMonthlyAdjusted decimal.Decimal `json:"base_monthly_adjusted"`
	FinalMonthly        decimal.Decimal `json:"final_monthly"`
	TotalValue          decimal.Decimal `json:"total_value"`
	ReferenceTier       int             `json:"reference_tier"`
	DiscountRate        decimal.Decimal `json:"discount_rate"`
	Savings             decimal.Decimal `json:"savings"`
}

// PriceCalculator prices proposals against an immutable schedule. It holds no
// mutable state and is safe for concurrent use.
type PriceCalculator struct {
	schedule PricingSchedule
}

// NewPriceCalculator validates and copies the schedule. Folder thresholds are
// re-ordered highest first so the first matching threshold wins.
func NewPriceCalculator(schedule PricingSchedule) (*PriceCalculator, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	s := PricingSchedule{
		BaseMonthlyRate:      schedule.BaseMonthlyRate,
		PageBuckets:          slices.Clone(schedule.PageBuckets),
		FolderThresholds:     slices.Clone(schedule.FolderThresholds),
		BaseFolderMultiplier: schedule.BaseFolderMultiplier,
		DiscountTiers:        slices.Clone(schedule.DiscountTiers),
	}
	slices.SortStableFunc(s.FolderThresholds, func(a, b FolderThreshold) int {
		return b.Above - a.Above
	})
	return &PriceCalculator{schedule: s}, nil
}

// NewDefaultPriceCalculator returns a calculator for DefaultPricingSchedule.
func NewDefaultPriceCalculator() *PriceCalculator {
	c, err := NewPriceCalculator(DefaultPricingSchedule())
	if err != nil {
		panic(err)
	}
	return c
}

// BaseMonthlyRate returns the unadjusted monthly rate of the schedule.
func (c *PriceCalculator) BaseMonthlyRate() decimal.Decimal {
	return c.schedule.BaseMonthlyRate
}

// DiscountTiers returns a copy of the schedule's discount table.
func (c *PriceCalculator) DiscountTiers() []DiscountTier {
	return slices.Clone(c.schedule.DiscountTiers)
}

// PageBuckets returns a copy of the schedule's page buckets.
func (c *PriceCalculator) PageBuckets() []PageBucket {
	return slices.Clone(c.schedule.PageBuckets)
}

// ComputeFactors maps page and folder counts to a situation label and the
// two multipliers. Buckets are discrete: one page past a bound jumps to the
// next multiplier.
func (c *PriceCalculator) ComputeFactors(pages, folders int) (PriceFactors, error) {
	if pages < 0 || folders < 0 {
		return PriceFactors{}, fmt.Errorf("%w: pages and folders must be non-negative (pages=%d, folders=%d)",
			ErrInvalidInput, pages, folders)
	}

	buckets := c.schedule.PageBuckets
	bucket := buckets[len(buckets)-1]
	for _, b := range buckets[:len(buckets)-1] {
		if pages <= b.MaxPages {
			bucket = b
			break
		}
	}

	folderMult := c.schedule.BaseFolderMultiplier
	for _, f := range c.schedule.FolderThresholds {
		if folders > f.Above {
			folderMult = f.Multiplier
			break
		}
	}

	return PriceFactors{
		Situation:        bucket.Label,
		PageMultiplier:   bucket.Multiplier,
		FolderMultiplier: folderMult,
	}, nil
}

// DiscountFor returns the floor tier for a duration: the largest threshold
// not above durationMonths, or the smallest tier when the duration is below
// every threshold.
func (c *PriceCalculator) DiscountFor(durationMonths int) DiscountTier {
	tiers := c.schedule.DiscountTiers
	tier := tiers[0]
	for _, t := range tiers {
		if durationMonths >= t.MinMonths {
			tier = t
		}
	}
	return tier
}

// ComputePrice prices a contract. A zero-month contract is valid and costs
// nothing.
func (c *PriceCalculator) ComputePrice(pages, folders, durationMonths int) (PriceResult, error) {
	if durationMonths < 0 {
		return PriceResult{}, fmt.Errorf("%w: duration must be non-negative (got %d)", ErrInvalidInput, durationMonths)
	}
	factors, err := c.ComputeFactors(pages, folders)
	if err != nil {
		return PriceResult{}, err
	}

	base := c.schedule.BaseMonthlyRate.Mul(factors.PageMultiplier).Mul(factors.FolderMultiplier)
	tier := c.DiscountFor(durationMonths)
	months := decimal.NewFromInt(int64(durationMonths))

	finalMonthly := base.Mul(decimal.NewFromInt(1).Sub(tier.Rate))
	total := finalMonthly.Mul(months)
	savings := base.Mul(months).Sub(total)

	return PriceResult{
		Situation:           factors.Situation,
		PageMultiplier:      factors.PageMultiplier,
		FolderMultiplier:    factors.FolderMultiplier,
		DurationMonths:      durationMonths,
		BaseMonthlyAdjusted: base,
		FinalMonthly:        finalMonthly,
		TotalValue:          total,
		ReferenceTier:       tier.MinMonths,
		DiscountRate:        tier.Rate,
		Savings:             savings,
	}, nil
}
