package modeler

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/qlikfox/qlikfox/pkg/apperrors"
	"github.com/qlikfox/qlikfox/pkg/models"
)

// Analyzer turns a raw table specification plus sampled statistics
// into a classified, relationship-resolved analysis. It holds no
// session state; Analyze is deterministic for identical inputs.
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	return &Analyzer{logger: logger.Named("analyzer")}
}

// fkCandidate is a foreign-key-like field with its best parent match.
type fkCandidate struct {
	childTable  string
	childField  string
	parentTable string
	parentField string
	confidence  float64
}

// Analyze runs classification, relationship resolution and model-type
// recommendation. It fails with a ValidationError when either input is
// absent or when sampled statistics reference a table the raw spec
// does not declare.
func (a *Analyzer) Analyze(input *models.TableInput, stats []models.SampledStats) (*models.AnalysisResult, error) {
	if input == nil || len(input.Tables) == 0 {
		return nil, apperrors.NewValidation("table specification is required")
	}
	if len(stats) == 0 {
		return nil, apperrors.NewValidation("sampled statistics are required")
	}

	specByTable := make(map[string]*models.RawTableSpec, len(input.Tables))
	for i := range input.Tables {
		specByTable[input.Tables[i].Name] = &input.Tables[i]
	}

	statsByTable := make(map[string]*models.SampledStats, len(stats))
	for i := range stats {
		name := stats[i].TableName
		if _, ok := specByTable[name]; !ok {
			return nil, apperrors.NewValidation("sampled statistics reference unknown table %q", name)
		}
		statsByTable[name] = &stats[i]
	}

	result := &models.AnalysisResult{AnalyzedAt: time.Now().UTC()}

	// Tables declared without statistics are kept in the result with
	// zero confidence rather than rejected.
	for _, spec := range input.Tables {
		if _, ok := statsByTable[spec.Name]; !ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("table %q has no sampled statistics; classified with zero confidence", spec.Name))
		}
	}

	pkFields := a.primaryKeyFields(input, statsByTable)
	fkMatches := a.matchForeignKeys(input, statsByTable, pkFields)

	a.classifyTables(input, statsByTable, fkMatches, result)
	a.resolveRelationships(input, statsByTable, fkMatches, result)
	a.recommendModelType(result)

	a.logger.Info("input analysis complete",
		zap.Int("tables", len(result.Tables)),
		zap.Int("relationships", len(result.Relationships)),
		zap.Int("unresolved", len(result.Unresolved)),
		zap.String("recommended", string(result.Recommendation.ModelType)))

	return result, nil
}

// primaryKeyFields returns, per table, the fields whose distinct-value
// count covers nearly the whole table (primary-key-like).
func (a *Analyzer) primaryKeyFields(input *models.TableInput, statsByTable map[string]*models.SampledStats) map[string][]string {
	pk := make(map[string][]string)
	for _, spec := range input.Tables {
		st := statsByTable[spec.Name]
		if st == nil || st.RowCount == 0 {
			continue
		}
		for _, f := range st.Fields {
			if uniqueRatio(f.Cardinality, st.RowCount) >= UniqueKeyRatioHigh {
				pk[spec.Name] = append(pk[spec.Name], f.Name)
			}
		}
	}
	return pk
}

// matchForeignKeys finds, for every field, the best primary-key-like
// counterpart in another table. Exact normalized name matches beat
// singular/plural inflected matches.
func (a *Analyzer) matchForeignKeys(input *models.TableInput, statsByTable map[string]*models.SampledStats, pkFields map[string][]string) map[string][]fkCandidate {
	matches := make(map[string][]fkCandidate)

	for _, child := range input.Tables {
		for _, field := range child.Fields {
			best := fkCandidate{}
			for _, parent := range input.Tables {
				if parent.Name == child.Name {
					continue
				}
				for _, pf := range pkFields[parent.Name] {
					conf := fieldMatchConfidence(field.Name, pf, parent.Name)
					if conf > best.confidence {
						best = fkCandidate{
							childTable:  child.Name,
							childField:  field.Name,
							parentTable: parent.Name,
							parentField: pf,
							confidence:  conf,
						}
					}
				}
			}
			if best.confidence > 0 {
				matches[child.Name] = append(matches[child.Name], best)
			}
		}
	}
	return matches
}

// fieldMatchConfidence scores how strongly childField looks like a
// reference to parentField of parentTable. Zero means no match.
func fieldMatchConfidence(childField, parentField, parentTable string) float64 {
	cf := normalizeName(childField)
	pf := normalizeName(parentField)

	if cf == pf {
		return InferredEdgeConfidence
	}

	// customer_id -> Customers.ID via singular table-name inflection
	singular := normalizeName(inflection.Singular(parentTable))
	if cf == singular+"id" && (pf == "id" || pf == singular+"id") {
		return InflectedEdgeConfidence
	}
	return 0
}

// classifyTables computes per-table signals and applies the scoring
// rules. Every table in the input appears exactly once in the result.
func (a *Analyzer) classifyTables(input *models.TableInput, statsByTable map[string]*models.SampledStats, fkMatches map[string][]fkCandidate, result *models.AnalysisResult) {
	var maxRows int64
	for _, st := range statsByTable {
		if st.RowCount > maxRows {
			maxRows = st.RowCount
		}
	}

	for _, spec := range input.Tables {
		st := statsByTable[spec.Name]
		if st == nil {
			result.Tables = append(result.Tables, models.TableAnalysis{
				Table:          spec.Name,
				Classification: models.ClassLookup,
				Confidence:     0,
			})
			continue
		}

		sig := a.tableSignals(&spec, st, fkMatches[spec.Name], maxRows)
		class, confidence := ClassifyTable(sig)

		result.Tables = append(result.Tables, models.TableAnalysis{
			Table:          spec.Name,
			Classification: class,
			Confidence:     confidence,
			RowCount:       sig.RowCount,
			UniqueKeyRatio: sig.UniqueKeyRatio,
			DateFieldRatio: sig.DateFieldRatio,
			ForeignKeys:    sig.FKLikeCount,
			KeyField:       sig.KeyField,
		})
	}
}

// tableSignals measures one table against its sampled statistics.
func (a *Analyzer) tableSignals(spec *models.RawTableSpec, st *models.SampledStats, fks []fkCandidate, maxRows int64) TableSignals {
	sig := TableSignals{
		RowCount:    st.RowCount,
		FieldCount:  len(spec.Fields),
		FKLikeCount: len(fks),
	}

	if maxRows > 0 {
		sig.RelativeRowSize = float64(st.RowCount) / float64(maxRows)
	}

	dateFields := 0
	for _, f := range spec.Fields {
		if isDateType(f.Type) {
			dateFields++
		}
	}
	if len(spec.Fields) > 0 {
		sig.DateFieldRatio = float64(dateFields) / float64(len(spec.Fields))
	}

	// Unique-key ratio of the most selective field.
	for _, f := range st.Fields {
		ratio := uniqueRatio(f.Cardinality, st.RowCount)
		if ratio > sig.UniqueKeyRatio {
			sig.UniqueKeyRatio = ratio
			sig.KeyField = f.Name
		}
	}

	sig.AttributeCount = sig.FieldCount - sig.FKLikeCount
	if sig.AttributeCount < 0 {
		sig.AttributeCount = 0
	}

	return sig
}

// resolveRelationships builds the edge list: declared hints first
// (authoritative), then inferred edges for foreign-key-like fields the
// hints did not cover.
func (a *Analyzer) resolveRelationships(input *models.TableInput, statsByTable map[string]*models.SampledStats, fkMatches map[string][]fkCandidate, result *models.AnalysisResult) {
	covered := make(map[string]bool) // "child.field" already has an edge

	for _, hint := range input.Hints {
		rel, err := a.resolveHint(hint, statsByTable, result)
		if err != nil {
			result.Warnings = append(result.Warnings, err.Error())
			a.logger.Warn("relationship hint skipped", zap.String("from", hint.From), zap.String("to", hint.To), zap.Error(err))
			continue
		}
		result.Relationships = append(result.Relationships, *rel)
		covered[rel.ChildTable+"."+rel.ChildField] = true
	}

	for _, spec := range input.Tables {
		for _, fk := range fkMatches[spec.Name] {
			if covered[fk.childTable+"."+fk.childField] {
				continue
			}

			parent := result.TableFor(fk.parentTable)
			if parent == nil || (parent.Classification != models.ClassDimension && parent.Classification != models.ClassLookup) {
				continue
			}

			childStats := statsByTable[fk.childTable]
			parentStats := statsByTable[fk.parentTable]
			if childStats == nil || parentStats == nil {
				continue
			}

			fieldStats := childStats.Field(fk.childField)
			if fieldStats == nil {
				continue
			}

			// A child key with more distinct values than the parent has
			// rows cannot reference it.
			if fieldStats.Cardinality > parentStats.RowCount {
				unresolved := fmt.Sprintf("%s.%s -> %s.%s (cardinality %d exceeds parent row count %d)",
					fk.childTable, fk.childField, fk.parentTable, fk.parentField,
					fieldStats.Cardinality, parentStats.RowCount)
				result.Unresolved = append(result.Unresolved, unresolved)
				a.logger.Warn("relationship dropped", zap.String("edge", unresolved))
				continue
			}

			result.Relationships = append(result.Relationships, models.Relationship{
				ChildTable:  fk.childTable,
				ChildField:  fk.childField,
				ParentTable: fk.parentTable,
				ParentField: fk.parentField,
				Cardinality: a.edgeCardinality(fk, statsByTable, result),
				Confidence:  fk.confidence,
				Source:      models.RelationshipInferred,
			})
			covered[fk.childTable+"."+fk.childField] = true
		}
	}
}

// resolveHint turns a declared hint into a normalized child-to-parent
// edge with confidence 1.0.
func (a *Analyzer) resolveHint(hint models.RelationshipHint, statsByTable map[string]*models.SampledStats, result *models.AnalysisResult) (*models.Relationship, error) {
	fromTable, fromField, err := splitFieldRef(hint.From)
	if err != nil {
		return nil, err
	}
	toTable, toField, err := splitFieldRef(hint.To)
	if err != nil {
		return nil, err
	}

	if result.TableFor(fromTable) == nil {
		return nil, fmt.Errorf("relationship hint references unknown table %q", fromTable)
	}
	if result.TableFor(toTable) == nil {
		return nil, fmt.Errorf("relationship hint references unknown table %q", toTable)
	}

	rel := &models.Relationship{
		ChildTable:  fromTable,
		ChildField:  fromField,
		ParentTable: toTable,
		ParentField: toField,
		Confidence:  1.0,
		Source:      models.RelationshipFromHint,
	}

	switch strings.ToLower(strings.TrimSpace(hint.Type)) {
	case "many-to-one", "n:1":
		rel.Cardinality = models.CardinalityOneToMany
	case "one-to-many", "1:n":
		// The hint's From side is the parent; normalize.
		rel.ChildTable, rel.ParentTable = toTable, fromTable
		rel.ChildField, rel.ParentField = toField, fromField
		rel.Cardinality = models.CardinalityOneToMany
	case "one-to-one", "1:1":
		rel.Cardinality = models.CardinalityOneToOne
	case "many-to-many", "n:m":
		rel.Cardinality = models.CardinalityManyToMany
	default:
		rel.Cardinality = a.edgeCardinality(fkCandidate{
			childTable: fromTable, childField: fromField,
			parentTable: toTable, parentField: toField,
		}, statsByTable, result)
	}

	return rel, nil
}

// edgeCardinality derives the cardinality of an accepted edge from the
// sampled statistics and the endpoint classifications.
func (a *Analyzer) edgeCardinality(fk fkCandidate, statsByTable map[string]*models.SampledStats, result *models.AnalysisResult) models.Cardinality {
	child := result.TableFor(fk.childTable)
	parent := result.TableFor(fk.parentTable)
	if (child != nil && child.Classification == models.ClassBridge) ||
		(parent != nil && parent.Classification == models.ClassBridge) {
		return models.CardinalityManyToMany
	}

	childStats := statsByTable[fk.childTable]
	parentStats := statsByTable[fk.parentTable]
	if childStats != nil && parentStats != nil {
		cf := childStats.Field(fk.childField)
		pf := parentStats.Field(fk.parentField)
		if cf != nil && pf != nil &&
			uniqueRatio(cf.Cardinality, childStats.RowCount) >= OneToOneRatio &&
			uniqueRatio(pf.Cardinality, parentStats.RowCount) >= OneToOneRatio {
			return models.CardinalityOneToOne
		}
	}

	return models.CardinalityOneToMany
}

// recommendModelType inspects the classified tables and resolved graph
// and records the recommendation with its deciding condition.
func (a *Analyzer) recommendModelType(result *models.AnalysisResult) {
	graph := NewModelGraph()
	for _, t := range result.Tables {
		graph.AddTable(t.Table)
	}
	for _, rel := range result.Relationships {
		graph.AddRelationship(rel)
	}

	var confidenceSum float64
	for _, t := range result.Tables {
		confidenceSum += t.Confidence
	}
	avgConfidence := confidenceSum / float64(len(result.Tables))

	switch {
	case len(result.Tables) == 1:
		result.Recommendation = models.Recommendation{
			ModelType:  models.ModelNormalized,
			Confidence: 0.5,
			Rationale:  "single table with no dimensional structure",
		}

	case avgConfidence < LowConfidenceFloor:
		result.Recommendation = models.Recommendation{
			ModelType:  models.ModelNormalized,
			Confidence: clamp01(avgConfidence),
			Rationale:  fmt.Sprintf("classification confidence is broadly low (average %.2f)", avgConfidence),
		}

	case !graph.IsConnected():
		result.Recommendation = models.Recommendation{
			ModelType:  models.ModelNormalized,
			Confidence: 0.5 * clamp01(avgConfidence),
			Rationale:  fmt.Sprintf("relationship graph is disconnected (%d components)", graph.ComponentCount()),
		}

	case a.hasManyToMany(result):
		rel := a.firstManyToMany(result)
		result.Recommendation = models.Recommendation{
			ModelType:  models.ModelLinkTable,
			Confidence: 0.85,
			Rationale: fmt.Sprintf("many-to-many relationship between %s and %s requires a link table",
				rel.ChildTable, rel.ParentTable),
		}

	case a.hasDimensionToDimension(result):
		rel := a.firstDimensionToDimension(result)
		result.Recommendation = models.Recommendation{
			ModelType:  models.ModelSnowflake,
			Confidence: 0.8,
			Rationale: fmt.Sprintf("dimension-to-dimension relationship %s -> %s indicates normalized dimensions",
				rel.ChildTable, rel.ParentTable),
		}

	default:
		result.Recommendation = models.Recommendation{
			ModelType:  models.ModelStarSchema,
			Confidence: 0.9,
			Rationale:  "every fact table connects directly to dimension tables with no many-to-many or dimension-to-dimension edges",
		}
	}
}

func (a *Analyzer) hasManyToMany(result *models.AnalysisResult) bool {
	return a.firstManyToMany(result) != nil
}

func (a *Analyzer) firstManyToMany(result *models.AnalysisResult) *models.Relationship {
	for i := range result.Relationships {
		if result.Relationships[i].Cardinality == models.CardinalityManyToMany {
			return &result.Relationships[i]
		}
	}
	return nil
}

func (a *Analyzer) hasDimensionToDimension(result *models.AnalysisResult) bool {
	return a.firstDimensionToDimension(result) != nil
}

// firstDimensionToDimension returns an edge whose both endpoints are
// non-fact tables (a dimension referencing another dimension or
// lookup), the signature of a snowflaked model.
func (a *Analyzer) firstDimensionToDimension(result *models.AnalysisResult) *models.Relationship {
	for i := range result.Relationships {
		rel := &result.Relationships[i]
		child := result.TableFor(rel.ChildTable)
		parent := result.TableFor(rel.ParentTable)
		if child == nil || parent == nil {
			continue
		}
		if child.Classification != models.ClassFact && child.Classification != models.ClassBridge &&
			parent.Classification != models.ClassFact && parent.Classification != models.ClassBridge {
			return rel
		}
	}
	return nil
}

// splitFieldRef parses a "Table.Field" reference.
func splitFieldRef(ref string) (table, field string, err error) {
	parts := strings.SplitN(strings.TrimSpace(ref), ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid field reference %q (expected Table.Field)", ref)
	}
	return parts[0], parts[1], nil
}

// normalizeName lowercases and strips separators for name comparison.
func normalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "")
	name = strings.ReplaceAll(name, "-", "")
	name = strings.ReplaceAll(name, " ", "")
	return name
}

// isDateType reports whether a declared field type is date-like.
func isDateType(fieldType string) bool {
	t := strings.ToLower(fieldType)
	return strings.Contains(t, "date") || strings.Contains(t, "time")
}

// uniqueRatio is the distinct-value share of a field, capped at 1.
func uniqueRatio(cardinality, rowCount int64) float64 {
	if rowCount <= 0 {
		return 0
	}
	return clamp01(float64(cardinality) / float64(rowCount))
}
