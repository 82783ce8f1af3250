package modeler

import (
	"fmt"
	"strings"

	"github.com/qlikfox/qlikfox/pkg/models"
)

// calendarLocale holds script-level month and day labels.
type calendarLocale struct {
	MonthNames     string
	DayNames       string
	LongMonthNames string
}

// calendarLocales maps the supported calendar languages to their
// labels. Config validation guarantees the session language is here.
var calendarLocales = map[string]calendarLocale{
	"en": {
		MonthNames:     "Jan;Feb;Mar;Apr;May;Jun;Jul;Aug;Sep;Oct;Nov;Dec",
		DayNames:       "Mon;Tue;Wed;Thu;Fri;Sat;Sun",
		LongMonthNames: "January;February;March;April;May;June;July;August;September;October;November;December",
	},
	"de": {
		MonthNames:     "Jan;Feb;Mär;Apr;Mai;Jun;Jul;Aug;Sep;Okt;Nov;Dez",
		DayNames:       "Mo;Di;Mi;Do;Fr;Sa;So",
		LongMonthNames: "Januar;Februar;März;April;Mai;Juni;Juli;August;September;Oktober;November;Dezember",
	},
	"fr": {
		MonthNames:     "janv;févr;mars;avr;mai;juin;juil;août;sept;oct;nov;déc",
		DayNames:       "lun;mar;mer;jeu;ven;sam;dim",
		LongMonthNames: "janvier;février;mars;avril;mai;juin;juillet;août;septembre;octobre;novembre;décembre",
	},
	"es": {
		MonthNames:     "ene;feb;mar;abr;may;jun;jul;ago;sep;oct;nov;dic",
		DayNames:       "lun;mar;mié;jue;vie;sáb;dom",
		LongMonthNames: "enero;febrero;marzo;abril;mayo;junio;julio;agosto;septiembre;octubre;noviembre;diciembre",
	},
	"sv": {
		MonthNames:     "jan;feb;mar;apr;maj;jun;jul;aug;sep;okt;nov;dec",
		DayNames:       "mån;tis;ons;tor;fre;lör;sön",
		LongMonthNames: "januari;februari;mars;april;maj;juni;juli;augusti;september;oktober;november;december",
	},
}

// configFragment emits the stage-A script: global declarations, path
// and locale variables, and the QUALIFY directive that prevents
// field-name collisions across subsequently loaded tables.
type configFragment struct{}

func (f *configFragment) Stage() models.StageID { return models.StageConfiguration }

func (f *configFragment) Generate(in FragmentInput) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "// ===== Stage A: Configuration (%s) =====\n", in.ProjectName)
	b.WriteString("SET ThousandSep=',';\n")
	b.WriteString("SET DecimalSep='.';\n")
	fmt.Fprintf(&b, "SET DateFormat='%s';\n", in.Config.DateFormat)
	fmt.Fprintf(&b, "SET TimestampFormat='%s hh:mm:ss';\n", in.Config.DateFormat)
	fmt.Fprintf(&b, "SET vDataPath = '%s';\n", in.Config.DestinationPath)
	fmt.Fprintf(&b, "SET vCalendarLanguage = '%s';\n", in.Config.CalendarLanguage)
	b.WriteString("\n")
	b.WriteString("// Qualify all fields so same-named fields from different tables\n")
	b.WriteString("// do not silently associate; %-prefixed keys stay shared.\n")
	b.WriteString("QUALIFY *;\n")
	b.WriteString("UNQUALIFY [%*];\n")

	return b.String(), nil
}

// dimensionsFragment emits one LOAD block per table classified
// dimension, lookup, or calendar.
type dimensionsFragment struct{}

func (f *dimensionsFragment) Stage() models.StageID { return models.StageDimensions }

func (f *dimensionsFragment) Generate(in FragmentInput) (string, error) {
	var b strings.Builder
	b.WriteString("// ===== Stage B: Dimensions =====\n")

	tables := tablesInSpecOrder(in, models.ClassDimension, models.ClassLookup, models.ClassCalendar)
	if len(tables) == 0 {
		b.WriteString("// No dimension tables classified.\n")
		return b.String(), nil
	}

	for _, spec := range tables {
		b.WriteString("\n")
		renderLoadBlock(&b, spec, keyAliases(spec.Name, in.Analysis))
	}
	return b.String(), nil
}

// factsFragment emits one LOAD block per fact table, with resolved
// foreign keys rewritten onto the keys established in stage B and the
// primary date field exposed for calendar association.
type factsFragment struct{}

func (f *factsFragment) Stage() models.StageID { return models.StageFacts }

func (f *factsFragment) Generate(in FragmentInput) (string, error) {
	var b strings.Builder
	b.WriteString("// ===== Stage C: Facts =====\n")

	tables := tablesInSpecOrder(in, models.ClassFact)
	if len(tables) == 0 {
		b.WriteString("// No fact tables classified.\n")
		return b.String(), nil
	}

	for _, spec := range tables {
		aliases := keyAliases(spec.Name, in.Analysis)
		if dateField := firstDateField(spec); dateField != "" {
			if _, taken := aliases[dateField]; !taken {
				aliases[dateField] = "%CalendarDate"
			}
		}
		b.WriteString("\n")
		renderLoadBlock(&b, spec, aliases)
	}
	return b.String(), nil
}

// calendarFragment synthesizes a master date dimension spanning the
// observed date range, or formalizes an explicitly classified
// calendar table with locale labels.
type calendarFragment struct{}

func (f *calendarFragment) Stage() models.StageID { return models.StageCalendar }

func (f *calendarFragment) Generate(in FragmentInput) (string, error) {
	var b strings.Builder
	b.WriteString("// ===== Stage D: Calendar =====\n")

	locale := calendarLocales[in.Config.CalendarLanguage]
	fmt.Fprintf(&b, "SET MonthNames='%s';\n", locale.MonthNames)
	fmt.Fprintf(&b, "SET LongMonthNames='%s';\n", locale.LongMonthNames)
	fmt.Fprintf(&b, "SET DayNames='%s';\n", locale.DayNames)

	if existing := in.Analysis.TablesOf(models.ClassCalendar); len(existing) > 0 {
		fmt.Fprintf(&b, "\n// [%s] is already classified as a calendar table and was\n", existing[0].Table)
		b.WriteString("// loaded in stage B; locale labels above formalize it.\n")
		return b.String(), nil
	}

	// No explicit calendar: derive the range from the fact date field
	// exposed as %CalendarDate in stage C.
	anchor := calendarAnchor(in)
	if anchor == "" {
		b.WriteString("\n// No date fields observed in the input; master calendar skipped.\n")
		return b.String(), nil
	}

	fmt.Fprintf(&b, "\n// Derive the calendar span from [%s].\n", anchor)
	b.WriteString("[TempCalendarRange]:\n")
	b.WriteString("LOAD\n")
	b.WriteString("    Num(Min([%CalendarDate])) AS MinDate,\n")
	b.WriteString("    Num(Max([%CalendarDate])) AS MaxDate\n")
	fmt.Fprintf(&b, "RESIDENT [%s];\n\n", anchor)
	b.WriteString("LET vCalMin = Peek('MinDate', 0, 'TempCalendarRange');\n")
	b.WriteString("LET vCalMax = Peek('MaxDate', 0, 'TempCalendarRange');\n")
	b.WriteString("DROP TABLE [TempCalendarRange];\n\n")
	b.WriteString("[MasterCalendar]:\n")
	b.WriteString("LOAD\n")
	b.WriteString("    Date(TempDate) AS [%CalendarDate],\n")
	b.WriteString("    Year(TempDate) AS [Year],\n")
	b.WriteString("    Month(TempDate) AS [Month],\n")
	b.WriteString("    Date(MonthStart(TempDate), 'MMM YYYY') AS [MonthYear],\n")
	b.WriteString("    'Q' & Ceil(Month(TempDate) / 3) AS [Quarter],\n")
	b.WriteString("    Week(TempDate) AS [Week],\n")
	b.WriteString("    WeekDay(TempDate) AS [WeekDay];\n")
	b.WriteString("LOAD\n")
	b.WriteString("    Date($(vCalMin) + IterNo() - 1) AS TempDate\n")
	b.WriteString("AUTOGENERATE 1\n")
	b.WriteString("WHILE $(vCalMin) + IterNo() - 1 <= $(vCalMax);\n")

	return b.String(), nil
}

// calendarAnchor picks the table whose %CalendarDate drives the span:
// the first fact table with a date field. Empty when no calendar can
// be synthesized.
func calendarAnchor(in FragmentInput) string {
	for _, spec := range tablesInSpecOrder(in, models.ClassFact) {
		if firstDateField(spec) != "" {
			return spec.Name
		}
	}
	return ""
}

// synthesizesCalendar reports whether stage D emits a MasterCalendar
// rather than formalizing an existing calendar table.
func synthesizesCalendar(in FragmentInput) bool {
	return len(in.Analysis.TablesOf(models.ClassCalendar)) == 0 && calendarAnchor(in) != ""
}

// synthesizedLinkRels returns the many-to-many edges stage E covers
// with a synthesized link table. Edges already carried by a
// bridge-classified table are excluded.
func synthesizedLinkRels(in FragmentInput) []models.Relationship {
	bridged := make(map[string]bool)
	for _, spec := range tablesInSpecOrder(in, models.ClassBridge) {
		bridged[spec.Name] = true
	}

	var out []models.Relationship
	for _, rel := range in.Analysis.Relationships {
		if rel.Cardinality != models.CardinalityManyToMany {
			continue
		}
		if bridged[rel.ChildTable] || bridged[rel.ParentTable] {
			continue
		}
		if specFor(in, rel.ChildTable) == nil {
			continue
		}
		out = append(out, rel)
	}
	return out
}

// bridgeFragment emits association tables for every many-to-many edge
// in the relationship graph. Tables classified bridge are themselves
// the association tables and are loaded here rather than synthesized.
type bridgeFragment struct{}

func (f *bridgeFragment) Stage() models.StageID { return models.StageBridges }

func (f *bridgeFragment) Generate(in FragmentInput) (string, error) {
	var b strings.Builder
	b.WriteString("// ===== Stage E: Bridge Tables =====\n")

	bridges := tablesInSpecOrder(in, models.ClassBridge)
	for _, spec := range bridges {
		b.WriteString("\n")
		renderLoadBlock(&b, spec, keyAliases(spec.Name, in.Analysis))
	}

	// Many-to-many edges not carried by a bridge-classified table get a
	// synthesized link table derived from the child side.
	links := synthesizedLinkRels(in)
	for _, rel := range links {
		childSpec := specFor(in, rel.ChildTable)
		fmt.Fprintf(&b, `
[Link_%s_%s]:
LOAD DISTINCT
    [%s] AS [%%%s],
    AutoNumber([%s], '%s_%s') AS [%%LinkKey]
FROM [$(vDataPath)/%s] (qvd);
`,
			rel.ChildTable, rel.ParentTable,
			rel.ChildField, rel.ParentField,
			rel.ChildField, rel.ChildTable, rel.ParentTable,
			qvdSource(childSpec))
	}

	if len(bridges) == 0 && len(links) == 0 {
		b.WriteString("// No many-to-many relationships; no bridge tables required.\n")
	}
	return b.String(), nil
}

// specFor returns the raw spec of the named table, or nil.
func specFor(in FragmentInput, table string) *models.RawTableSpec {
	if in.Input == nil {
		return nil
	}
	for i := range in.Input.Tables {
		if in.Input.Tables[i].Name == table {
			return &in.Input.Tables[i]
		}
	}
	return nil
}

// assemblyFragment runs consistency checks over the approved
// fragments and appends the storage directives. It does not repeat the
// upstream fragment text: the assembled script is the ordered
// concatenation of every approved stage, this one included.
type assemblyFragment struct{}

func (f *assemblyFragment) Stage() models.StageID { return models.StageAssembly }

func (f *assemblyFragment) Generate(in FragmentInput) (string, error) {
	var b strings.Builder
	b.WriteString("// ===== Stage F: Final Assembly =====\n")

	for _, warning := range f.consistencyWarnings(in) {
		fmt.Fprintf(&b, "// WARNING: %s\n", warning)
	}

	b.WriteString("\n// Persist the model for downstream consumption.\n")
	for _, spec := range tablesInSpecOrder(in,
		models.ClassDimension, models.ClassLookup, models.ClassCalendar,
		models.ClassFact, models.ClassBridge) {
		fmt.Fprintf(&b, "STORE [%s] INTO [$(vDataPath)/model/%s] (qvd);\n", spec.Name, qvdSource(spec))
	}

	// Tables synthesized in stages D and E exist only in memory; they
	// need storage directives of their own.
	if synthesizesCalendar(in) {
		b.WriteString("STORE [MasterCalendar] INTO [$(vDataPath)/model/mastercalendar.qvd] (qvd);\n")
	}
	for _, rel := range synthesizedLinkRels(in) {
		name := fmt.Sprintf("Link_%s_%s", rel.ChildTable, rel.ParentTable)
		fmt.Fprintf(&b, "STORE [%s] INTO [$(vDataPath)/model/%s.qvd] (qvd);\n", name, strings.ToLower(name))
	}

	b.WriteString("\nEXIT Script;\n")
	return b.String(), nil
}

// consistencyWarnings reports unreferenced tables and field names
// declared by more than one table.
func (f *assemblyFragment) consistencyWarnings(in FragmentInput) []string {
	var warnings []string

	referenced := make(map[string]bool)
	for _, rel := range in.Analysis.Relationships {
		referenced[rel.ChildTable] = true
		referenced[rel.ParentTable] = true
	}
	if len(in.Analysis.Tables) > 1 {
		for _, t := range in.Analysis.Tables {
			if !referenced[t.Table] {
				warnings = append(warnings, fmt.Sprintf("table [%s] has no resolved relationships", t.Table))
			}
		}
	}

	if in.Input != nil {
		// Fields carrying a resolved relationship are shared on purpose
		// (they become %-prefixed keys) and are not duplicates.
		keyField := make(map[string]bool)
		for _, rel := range in.Analysis.Relationships {
			keyField[rel.ChildTable+"."+normalizeName(rel.ChildField)] = true
			keyField[rel.ParentTable+"."+normalizeName(rel.ParentField)] = true
		}

		seen := make(map[string]string)
		for _, spec := range in.Input.Tables {
			for _, field := range spec.Fields {
				name := normalizeName(field.Name)
				if keyField[spec.Name+"."+name] {
					continue
				}
				if other, ok := seen[name]; ok && other != spec.Name {
					warnings = append(warnings, fmt.Sprintf(
						"field [%s] appears in both [%s] and [%s]; kept apart by QUALIFY", field.Name, other, spec.Name))
				} else {
					seen[name] = spec.Name
				}
			}
		}
	}

	return warnings
}
