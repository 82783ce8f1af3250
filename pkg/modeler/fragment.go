package modeler

import (
	"fmt"
	"strings"

	"github.com/qlikfox/qlikfox/pkg/apperrors"
	"github.com/qlikfox/qlikfox/pkg/models"
)

// FragmentInput is the snapshot a fragment builder generates from.
// Builders never mutate it.
type FragmentInput struct {
	ProjectName     string
	Input           *models.TableInput
	Stats           []models.SampledStats
	Analysis        *models.AnalysisResult
	Config          models.BuildConfig
	ModelType       models.ModelType
	ApprovedScripts map[models.StageID]string
}

// FragmentBuilder generates the script fragment for one stage. Each
// stage rule is its own builder so generation is independently
// testable and swappable.
type FragmentBuilder interface {
	Stage() models.StageID
	Generate(in FragmentInput) (string, error)
}

// FragmentSet holds the builder for every stage.
type FragmentSet struct {
	builders map[models.StageID]FragmentBuilder
}

// NewFragmentSet registers the six standard stage builders.
func NewFragmentSet() *FragmentSet {
	fs := &FragmentSet{builders: make(map[models.StageID]FragmentBuilder)}
	for _, b := range []FragmentBuilder{
		&configFragment{},
		&dimensionsFragment{},
		&factsFragment{},
		&calendarFragment{},
		&bridgeFragment{},
		&assemblyFragment{},
	} {
		fs.builders[b.Stage()] = b
	}
	return fs
}

// Generate runs the builder registered for the stage.
func (fs *FragmentSet) Generate(id models.StageID, in FragmentInput) (string, error) {
	builder, ok := fs.builders[id]
	if !ok {
		return "", apperrors.NewValidation("unknown stage %q", id)
	}
	if in.Analysis == nil {
		return "", apperrors.NewWorkflow("input has not been processed; nothing to generate from")
	}
	return builder.Generate(in)
}

// keyAliases maps a table's field names to their association names
// (the %-prefixed keys kept unqualified by the stage-A directive).
// Parent-side key fields keep their own name; child-side foreign keys
// are rewritten onto the parent's key name so the tables associate.
func keyAliases(table string, analysis *models.AnalysisResult) map[string]string {
	aliases := make(map[string]string)
	for _, rel := range analysis.Relationships {
		if rel.ParentTable == table {
			aliases[rel.ParentField] = "%" + rel.ParentField
		}
		if rel.ChildTable == table {
			aliases[rel.ChildField] = "%" + rel.ParentField
		}
	}

	// A table with no resolved relationships still exposes its business
	// key for downstream association.
	if len(aliases) == 0 {
		if ta := analysis.TableFor(table); ta != nil && ta.KeyField != "" {
			aliases[ta.KeyField] = "%" + ta.KeyField
		}
	}
	return aliases
}

// renderLoadBlock emits one LOAD block for a table: field list from
// the raw spec, key fields aliased per the alias map, source path from
// the session config (via the vDataPath variable declared in stage A).
func renderLoadBlock(b *strings.Builder, spec *models.RawTableSpec, aliases map[string]string) {
	fmt.Fprintf(b, "[%s]:\nLOAD\n", spec.Name)
	for i, f := range spec.Fields {
		sep := ","
		if i == len(spec.Fields)-1 {
			sep = ""
		}
		if alias, ok := aliases[f.Name]; ok {
			fmt.Fprintf(b, "    [%s] AS [%s]%s\n", f.Name, alias, sep)
		} else {
			fmt.Fprintf(b, "    [%s]%s\n", f.Name, sep)
		}
	}
	fmt.Fprintf(b, "FROM [$(vDataPath)/%s] (qvd);\n", qvdSource(spec))
}

// qvdSource resolves the source file name for a table.
func qvdSource(spec *models.RawTableSpec) string {
	name := spec.SourceName
	if name == "" {
		name = strings.ToLower(spec.Name)
	}
	if !strings.HasSuffix(strings.ToLower(name), ".qvd") {
		name += ".qvd"
	}
	return name
}

// tablesInSpecOrder returns the analysis entries for tables of the
// given classes, preserving the raw-spec declaration order so that
// generation is deterministic.
func tablesInSpecOrder(in FragmentInput, classes ...models.TableClass) []*models.RawTableSpec {
	want := make(map[models.TableClass]bool, len(classes))
	for _, c := range classes {
		want[c] = true
	}
	var out []*models.RawTableSpec
	if in.Input == nil {
		return out
	}
	for i := range in.Input.Tables {
		spec := &in.Input.Tables[i]
		if ta := in.Analysis.TableFor(spec.Name); ta != nil && want[ta.Classification] {
			out = append(out, spec)
		}
	}
	return out
}

// firstDateField returns the first date-typed field of a table spec.
func firstDateField(spec *models.RawTableSpec) string {
	for _, f := range spec.Fields {
		if isDateType(f.Type) {
			return f.Name
		}
	}
	return ""
}
