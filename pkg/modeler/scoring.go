package modeler

import (
	"github.com/qlikfox/qlikfox/pkg/models"
)

// Classification thresholds. The spec material leaves the exact
// numbers open; these are validated against the scenario tests.
const (
	// UniqueKeyRatioHigh - a field whose distinct-value count covers at
	// least this share of the row count is treated as key-like.
	UniqueKeyRatioHigh = 0.95

	// CalendarDateFieldRatio - tables where more than this share of
	// fields are date-typed are calendar candidates.
	CalendarDateFieldRatio = 0.5

	// CalendarMaxRowCount - calendars are modest; anything beyond this
	// is too large to be a date spine.
	CalendarMaxRowCount = 100_000

	// FactRowDominance - a table is "large relative to all other
	// tables" when its row count reaches this share of the maximum.
	FactRowDominance = 0.5

	// LowConfidenceFloor - when average classification confidence sits
	// below this, the recommendation falls back to normalized.
	LowConfidenceFloor = 0.45

	// OneToOneRatio - both sides of an edge must show a unique-key
	// ratio at or above this for the edge to be one-to-one.
	OneToOneRatio = 0.98

	// InferredEdgeConfidence - confidence assigned to an edge resolved
	// by exact field-name matching.
	InferredEdgeConfidence = 0.85

	// InflectedEdgeConfidence - confidence assigned to an edge resolved
	// through singular/plural table-name inflection.
	InflectedEdgeConfidence = 0.7
)

// TableSignals are the per-table measurements classification runs on.
// They are computed once from the raw spec and sampled statistics and
// never mutated.
type TableSignals struct {
	RowCount        int64
	FieldCount      int
	UniqueKeyRatio  float64
	DateFieldRatio  float64
	FKLikeCount     int
	AttributeCount  int
	RelativeRowSize float64
	KeyField        string
}

// scoreCalendar favors tables dominated by date-typed fields with a
// modest row count.
func scoreCalendar(s TableSignals) float64 {
	score := s.DateFieldRatio
	if s.DateFieldRatio <= CalendarDateFieldRatio {
		score *= 0.2
	}
	if s.RowCount > CalendarMaxRowCount {
		score *= 0.3
	}
	return clamp01(score)
}

// scoreDimension favors a highly selective key and few outgoing
// foreign keys.
func scoreDimension(s TableSignals) float64 {
	return clamp01(s.UniqueKeyRatio - 0.3*float64(s.FKLikeCount))
}

// scoreFact favors row-count dominance combined with foreign-key
// likeness.
func scoreFact(s TableSignals) float64 {
	fkWeight := float64(s.FKLikeCount) / 2
	if fkWeight > 1 {
		fkWeight = 1
	}
	score := s.RelativeRowSize * (0.5 + 0.5*fkWeight)
	if s.RelativeRowSize < FactRowDominance {
		score *= 0.5
	}
	return clamp01(score)
}

// scoreBridge is all-or-nothing: exactly two foreign-key-like fields
// and no independent attributes.
func scoreBridge(s TableSignals) float64 {
	if s.FKLikeCount == 2 && s.AttributeCount == 0 {
		return 0.95
	}
	return 0
}

// scoreLookup is the fallback baseline; it wins only when every other
// rule scores weakly.
func scoreLookup(s TableSignals) float64 {
	return 0.3
}

// ClassifyTable applies the classification rules in precedence order
// (calendar, bridge, fact, dimension, lookup) and returns the class
// plus a confidence normalized across the competing rule scores.
func ClassifyTable(s TableSignals) (models.TableClass, float64) {
	scores := map[models.TableClass]float64{
		models.ClassCalendar:  scoreCalendar(s),
		models.ClassBridge:    scoreBridge(s),
		models.ClassFact:      scoreFact(s),
		models.ClassDimension: scoreDimension(s),
		models.ClassLookup:    scoreLookup(s),
	}

	var class models.TableClass
	switch {
	case s.DateFieldRatio > CalendarDateFieldRatio && s.RowCount <= CalendarMaxRowCount:
		class = models.ClassCalendar
	case s.FKLikeCount == 2 && s.AttributeCount == 0:
		class = models.ClassBridge
	case s.RelativeRowSize >= FactRowDominance && s.FKLikeCount >= 1:
		class = models.ClassFact
	case s.UniqueKeyRatio >= UniqueKeyRatioHigh && s.FKLikeCount <= 1:
		class = models.ClassDimension
	default:
		class = models.ClassLookup
	}

	var total float64
	for _, v := range scores {
		total += v
	}
	if total == 0 {
		return class, 0
	}
	return class, clamp01(scores[class] / total)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
