// Package reconciliation explains physical-count discrepancies using the movement ledger.
//
// Every counted InventoryCount is paired with the movements of its SKU. Movements at or
// before the count timestamp adjust the system quantity into an expected stock, and the
// physical count is compared against that expectation. Movements after the count are
// reported but never affect the verdict.
package reconciliation

import (
	"fmt"
	"time"

	"stockcount/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the verdict for one reconciled SKU
type Status string

const (
	StatusExplained       Status = "Explained by Movements"
	StatusNoDifference    Status = "No Difference"
	StatusRealDiscrepancy Status = "Real Discrepancy"
)

// Tolerance absorbs rounding noise when comparing quantities
var Tolerance = decimal.RequireFromString("0.01")

// Options selects the policy for counted rows without a physical quantity
type Options struct {
	// ExcludeIncomplete drops counted rows whose physical quantity is missing instead of
	// reconciling them as zero. Dropped rows are counted in Summary.IncompleteRecords.
	ExcludeIncomplete bool
}

// MovementLine is a movement as reported inside a reconciliation record
type MovementLine struct {
	ID         uuid.UUID  `json:"id"`
	Kind       string     `json:"kind"`
	Quantity   int        `json:"quantity"`
	Location   *string    `json:"location"`
	OccurredAt time.Time  `json:"occurred_at"`
	UserID     *uuid.UUID `json:"user_id"`
	Username   string     `json:"username,omitempty"`
	Note       string     `json:"note,omitempty"`
}

// Record is the reconciliation verdict for one counted SKU
type Record struct {
	InventoryID      uuid.UUID       `json:"inventory_id"`
	Warehouse        string          `json:"warehouse"`
	Location         string          `json:"location"`
	Brand            string          `json:"brand"`
	Barcode          string          `json:"barcode"`
	Description      string          `json:"description"`
	SystemQuantity   decimal.Decimal `json:"system_quantity"`
	PhysicalQuantity decimal.Decimal `json:"physical_quantity"`
	CountedAt        time.Time       `json:"counted_at"`

	PreCount  []MovementLine `json:"pre_count_movements"`
	PostCount []MovementLine `json:"post_count_movements"`

	InPre   decimal.Decimal `json:"in_pre"`
	OutPre  decimal.Decimal `json:"out_pre"`
	InPost  decimal.Decimal `json:"in_post"`
	OutPost decimal.Decimal `json:"out_post"`
	NetPre  decimal.Decimal `json:"net_pre"`
	NetPost decimal.Decimal `json:"net_post"`

	ExpectedStock decimal.Decimal `json:"expected_stock"`
	ApparentDiff  decimal.Decimal `json:"apparent_diff"`
	RealDiff      decimal.Decimal `json:"real_diff"`

	Status         Status   `json:"status"`
	Message        string   `json:"message"`
	HasMovements   bool     `json:"has_movements"`
	HasDiscrepancy bool     `json:"has_discrepancy"`
	Incomplete     bool     `json:"incomplete"`
	Warnings       []string `json:"warnings,omitempty"`
}

// Summary aggregates verdicts over all records
type Summary struct {
	TotalRecords      int `json:"total_records"`
	WithMovements     int `json:"with_movements"`
	MovementExplained int `json:"movement_explained"`
	TrueDiscrepancies int `json:"true_discrepancies"`
	NoDiscrepancy     int `json:"no_discrepancy"`
	IncompleteRecords int `json:"incomplete_records"`
}

// Result is the analyzer output
type Result struct {
	Records []Record `json:"records"`
	Summary Summary  `json:"summary"`
}

type skuKey struct {
	warehouse string
	brand     string
	barcode   string
}

// Reconcile computes a verdict for every counted row in counts. It is a pure function:
// the same inputs always yield the same output, in the order of counts.
func Reconcile(counts []model.InventoryCount, movements []model.Movement, opts Options) Result {
	res := Result{Records: make([]Record, 0, len(counts))}
	if len(counts) == 0 {
		return res
	}

	byKey := make(map[skuKey][]*model.Movement)
	for i := range movements {
		m := &movements[i]
		k := skuKey{warehouse: m.Warehouse, brand: m.Brand, barcode: m.Barcode}
		byKey[k] = append(byKey[k], m)
	}

	for i := range counts {
		c := &counts[i]
		if c.CountedAt == nil {
			continue
		}

		incomplete := !c.PhysicalQuantity.Valid
		if incomplete {
			res.Summary.IncompleteRecords++
			if opts.ExcludeIncomplete {
				continue
			}
		}

		rec := reconcileOne(c, byKey[skuKey{warehouse: c.Warehouse, brand: c.Brand, barcode: c.Barcode}])
		res.Records = append(res.Records, rec)

		res.Summary.TotalRecords++
		if rec.HasMovements {
			res.Summary.WithMovements++
		}
		switch rec.Status {
		case StatusExplained:
			res.Summary.MovementExplained++
		case StatusRealDiscrepancy:
			res.Summary.TrueDiscrepancies++
		case StatusNoDifference:
			res.Summary.NoDiscrepancy++
		}
	}

	return res
}

func reconcileOne(c *model.InventoryCount, candidates []*model.Movement) Record {
	countedAt := *c.CountedAt

	rec := Record{
		InventoryID:    c.ID,
		Warehouse:      c.Warehouse,
		Location:       c.Location,
		Brand:          c.Brand,
		Barcode:        c.Barcode,
		Description:    c.Description,
		SystemQuantity: c.SystemQuantity,
		CountedAt:      countedAt,
		PreCount:       []MovementLine{},
		PostCount:      []MovementLine{},
		InPre:          decimal.Zero,
		OutPre:         decimal.Zero,
		InPost:         decimal.Zero,
		OutPost:        decimal.Zero,
	}

	if c.PhysicalQuantity.Valid {
		rec.PhysicalQuantity = c.PhysicalQuantity.Decimal
	} else {
		rec.PhysicalQuantity = decimal.Zero
		rec.Incomplete = true
		rec.Warnings = append(rec.Warnings, "physical quantity missing on a counted record, treated as 0")
	}

	for _, m := range candidates {
		if !m.AppliesToLocation(c.Location) {
			continue
		}

		qty := decimal.NewFromInt(int64(m.Quantity))
		line := toLine(m)

		// The count timestamp itself belongs to the pre-count side.
		if !m.OccurredAt.After(countedAt) {
			rec.PreCount = append(rec.PreCount, line)
			switch m.Kind {
			case model.MovementIn:
				rec.InPre = rec.InPre.Add(qty)
			case model.MovementOut:
				rec.OutPre = rec.OutPre.Add(qty)
			default:
				rec.Warnings = append(rec.Warnings, fmt.Sprintf("movement %s has unknown kind %q, ignored", m.ID, m.Kind))
			}
			continue
		}

		rec.PostCount = append(rec.PostCount, line)
		switch m.Kind {
		case model.MovementIn:
			rec.InPost = rec.InPost.Add(qty)
		case model.MovementOut:
			rec.OutPost = rec.OutPost.Add(qty)
		default:
			rec.Warnings = append(rec.Warnings, fmt.Sprintf("movement %s has unknown kind %q, ignored", m.ID, m.Kind))
		}
	}

	rec.NetPre = rec.InPre.Sub(rec.OutPre)
	rec.NetPost = rec.InPost.Sub(rec.OutPost)
	rec.ExpectedStock = rec.SystemQuantity.Add(rec.NetPre)
	rec.ApparentDiff = rec.PhysicalQuantity.Sub(rec.SystemQuantity)
	rec.RealDiff = rec.PhysicalQuantity.Sub(rec.ExpectedStock)

	rec.HasMovements = len(rec.PreCount)+len(rec.PostCount) > 0
	rec.HasDiscrepancy = !withinTolerance(rec.RealDiff)
	rec.Status, rec.Message = classify(rec)

	return rec
}

func classify(rec Record) (Status, string) {
	realOK := withinTolerance(rec.RealDiff)
	apparentOK := withinTolerance(rec.ApparentDiff)

	switch {
	case realOK && !apparentOK:
		return StatusExplained, fmt.Sprintf("Difference of %s explained by %d pre-count movement(s)",
			rec.ApparentDiff.StringFixed(2), len(rec.PreCount))
	case realOK && apparentOK:
		return StatusNoDifference, "Physical count matches the system quantity"
	default:
		direction := "shortage"
		if rec.RealDiff.IsPositive() {
			direction = "surplus"
		}
		return StatusRealDiscrepancy, fmt.Sprintf("Unexplained %s of %s units after applying pre-count movements",
			direction, rec.RealDiff.Abs().StringFixed(2))
	}
}

func withinTolerance(d decimal.Decimal) bool {
	return d.Abs().LessThan(Tolerance)
}

func toLine(m *model.Movement) MovementLine {
	line := MovementLine{
		ID:         m.ID,
		Kind:       m.Kind,
		Quantity:   m.Quantity,
		Location:   m.Location,
		OccurredAt: m.OccurredAt,
		UserID:     m.UserID,
		Note:       m.Note,
	}
	if m.User != nil {
		line.Username = m.User.Username
	}
	return line
}

// DistinctBarcodes returns the barcodes of counts in first-seen order
func DistinctBarcodes(counts []model.InventoryCount) []string {
	seen := make(map[string]struct{}, len(counts))
	out := make([]string, 0, len(counts))
	for _, c := range counts {
		if _, ok := seen[c.Barcode]; ok {
			continue
		}
		seen[c.Barcode] = struct{}{}
		out = append(out, c.Barcode)
	}
	return out
}
