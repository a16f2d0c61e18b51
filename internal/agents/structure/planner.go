package structure

import (
	"math"
	"sort"
	"strings"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/musical"
	"github.com/Conceptual-Machines/composer-api/internal/music"
)

// Form is a large-scale musical form
type Form string

const (
	FormSonata          Form = "sonata"
	FormRondo           Form = "rondo"
	FormThemeVariations Form = "theme_variations"
)

// Forms lists the supported forms
func Forms() []Form {
	return []Form{FormSonata, FormRondo, FormThemeVariations}
}

// ParseForm falls back to sonata for anything it does not recognize
func ParseForm(s string) Form {
	switch Form(strings.ToLower(strings.TrimSpace(s))) {
	case FormRondo:
		return FormRondo
	case FormThemeVariations, "variations":
		return FormThemeVariations
	}
	return FormSonata
}

// Key relations relative to the home key
const (
	RelationTonic        = "I"
	RelationDominant     = "V"
	RelationSubmediant   = "vi"
	RelationParallel     = "i"
	RelationModulating   = "I->V"
	RelationVarious      = "various"
	RelationRetransition = "V/I"
)

// KeyFor resolves a key relation against the home key. Modulating and
// wandering sections start from home.
func KeyFor(relation string, home music.Key) music.Key {
	switch relation {
	case RelationDominant, RelationRetransition:
		return home.Transpose(7)
	case RelationSubmediant:
		return home.Relative()
	case RelationParallel:
		return home.Parallel()
	}
	return home
}

// SectionPlan is one entry of a structure plan
type SectionPlan struct {
	Name          string            `json:"name"`
	Measures      int               `json:"measures"`
	KeyRelation   string            `json:"key_relation"`
	Character     musical.Character `json:"character"`
	ParentSection string            `json:"parent_section"`
}

type part struct {
	name      string
	relation  string
	character musical.Character
}

type section struct {
	name       string
	proportion float64
	parts      []part
}

var sonataTemplate = []section{
	{
		name:       "exposition",
		proportion: 0.3,
		parts: []part{
			{"first_theme", RelationTonic, musical.CharacterEnergetic},
			{"transition", RelationModulating, musical.CharacterModulatory},
			{"second_theme", RelationDominant, musical.CharacterLyrical},
			{"closing", RelationDominant, musical.CharacterConclusive},
		},
	},
	{
		name:       "development",
		proportion: 0.4,
		parts: []part{
			{"fragmentation", RelationVarious, musical.CharacterUnstable},
			{"sequence", RelationVarious, musical.CharacterProgressive},
			{"climax", RelationVarious, musical.CharacterIntense},
			{"retransition", RelationRetransition, musical.CharacterPreparatory},
		},
	},
	{
		name:       "recapitulation",
		proportion: 0.3,
		parts: []part{
			{"first_theme", RelationTonic, musical.CharacterEnergetic},
			{"transition_alt", RelationTonic, musical.CharacterStable},
			{"second_theme", RelationTonic, musical.CharacterLyrical},
			{"coda", RelationTonic, musical.CharacterFinal},
		},
	},
}

type episode struct {
	part
	proportion float64
}

var rondoTemplate = []episode{
	{part{"A", RelationTonic, musical.CharacterEnergetic}, 0.15},
	{part{"B", RelationDominant, musical.CharacterLyrical}, 0.15},
	{part{"A", RelationTonic, musical.CharacterEnergetic}, 0.1},
	{part{"C", RelationSubmediant, musical.CharacterUnstable}, 0.2},
	{part{"A", RelationTonic, musical.CharacterEnergetic}, 0.1},
	{part{"B", RelationTonic, musical.CharacterLyrical}, 0.15},
	{part{"A_coda", RelationTonic, musical.CharacterConclusive}, 0.15},
}

var variationTemplate = []part{
	{"theme", RelationTonic, musical.CharacterStable},
	{"ornamentation", RelationTonic, musical.CharacterLyrical},
	{"syncopation", RelationTonic, musical.CharacterEnergetic},
	{"reharmonization", RelationTonic, musical.CharacterModulatory},
	{"contrapuntal", RelationTonic, musical.CharacterProgressive},
	{"minor_mode", RelationParallel, musical.CharacterIntense},
	{"rapid_figuration", RelationTonic, musical.CharacterEnergetic},
}

// Plan expands a form into an ordered list of sections. Sonata sections get
// round(total x proportion) measures split evenly over their subsections by
// integer division, so the plan may come up a few measures short of total.
// Plans never exceed total; a non-positive total yields an empty plan.
// When the split leaves sections empty, the shortfall is handed out one
// measure at a time, first subsections of each parent first.
func Plan(total int, form Form) []SectionPlan {
	if total <= 0 {
		return []SectionPlan{}
	}

	var plan []SectionPlan
	switch form {
	case FormRondo:
		plan = planRondo(total)
	case FormThemeVariations:
		plan = planVariations(total)
	default:
		plan = planSonata(total)
	}
	return fillEmpty(fitTotal(plan, total), total)
}

func planSonata(total int) []SectionPlan {
	plan := make([]SectionPlan, 0, 12)
	for _, s := range sonataTemplate {
		budget := int(math.Round(float64(total) * s.proportion))
		each := budget / len(s.parts)
		for _, p := range s.parts {
			plan = append(plan, SectionPlan{
				Name:          s.name + "_" + p.name,
				Measures:      each,
				KeyRelation:   p.relation,
				Character:     p.character,
				ParentSection: s.name,
			})
		}
	}
	return plan
}

func planRondo(total int) []SectionPlan {
	plan := make([]SectionPlan, 0, len(rondoTemplate))
	for _, e := range rondoTemplate {
		plan = append(plan, SectionPlan{
			Name:          e.name,
			Measures:      int(math.Round(float64(total) * e.proportion)),
			KeyRelation:   e.relation,
			Character:     e.character,
			ParentSection: string(FormRondo),
		})
	}
	return plan
}

func planVariations(total int) []SectionPlan {
	each := total / len(variationTemplate)
	plan := make([]SectionPlan, 0, len(variationTemplate))
	for i, p := range variationTemplate {
		parent := "variations"
		if i == 0 {
			parent = "theme"
		}
		plan = append(plan, SectionPlan{
			Name:          p.name,
			Measures:      each,
			KeyRelation:   p.relation,
			Character:     p.character,
			ParentSection: parent,
		})
	}
	return plan
}

// fitTotal takes measures back from the last sections when rounding overshot
func fitTotal(plan []SectionPlan, total int) []SectionPlan {
	excess := TotalMeasures(plan) - total
	for i := len(plan) - 1; i >= 0 && excess > 0; i-- {
		take := min(excess, plan[i].Measures)
		plan[i].Measures -= take
		excess -= take
	}
	return plan
}

// fillEmpty gives one measure each to empty sections while the plan is short
// of total. Sections are visited by their position inside their parent, so
// small totals still touch every parent before any parent gets a second one.
func fillEmpty(plan []SectionPlan, total int) []SectionPlan {
	short := total - TotalMeasures(plan)
	if short <= 0 {
		return plan
	}

	rank := make([]int, len(plan))
	seen := make(map[string]int)
	var empty []int
	for i, s := range plan {
		rank[i] = seen[s.ParentSection]
		seen[s.ParentSection]++
		if s.Measures == 0 {
			empty = append(empty, i)
		}
	}
	sort.SliceStable(empty, func(a, b int) bool {
		return rank[empty[a]] < rank[empty[b]]
	})

	for _, i := range empty[:min(short, len(empty))] {
		plan[i].Measures = 1
	}
	return plan
}

// TotalMeasures sums the plan
func TotalMeasures(plan []SectionPlan) int {
	n := 0
	for _, s := range plan {
		n += s.Measures
	}
	return n
}

// Parents returns the distinct parent sections in order of first appearance
func Parents(plan []SectionPlan) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range plan {
		if !seen[s.ParentSection] {
			seen[s.ParentSection] = true
			out = append(out, s.ParentSection)
		}
	}
	return out
}
