package structure

import (
	"testing"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/musical"
	"github.com/Conceptual-Machines/composer-api/internal/music"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseForm(t *testing.T) {
	assert.Equal(t, FormRondo, ParseForm("Rondo"))
	assert.Equal(t, FormThemeVariations, ParseForm("theme_variations"))
	assert.Equal(t, FormSonata, ParseForm("fugue"))
	assert.Equal(t, FormSonata, ParseForm(""))
}

func TestPlan_Sonata32(t *testing.T) {
	plan := Plan(32, FormSonata)
	require.Len(t, plan, 12)
	assert.LessOrEqual(t, TotalMeasures(plan), 32)
	assert.Equal(t, []string{"exposition", "development", "recapitulation"}, Parents(plan))

	// round(9.6)=10 -> 2 each, round(12.8)=13 -> 3 each
	assert.Equal(t, "exposition_first_theme", plan[0].Name)
	assert.Equal(t, 2, plan[0].Measures)
	assert.Equal(t, musical.CharacterEnergetic, plan[0].Character)
	assert.Equal(t, RelationModulating, plan[1].KeyRelation)
	assert.Equal(t, 3, plan[4].Measures)
	assert.Equal(t, musical.CharacterIntense, plan[6].Character)
	assert.Equal(t, "recapitulation_coda", plan[11].Name)
	assert.Equal(t, musical.CharacterFinal, plan[11].Character)
}

func TestPlan_NeverExceedsTotal(t *testing.T) {
	for _, form := range Forms() {
		for total := 1; total <= 200; total++ {
			plan := Plan(total, form)
			assert.LessOrEqual(t, TotalMeasures(plan), total, "%s %d", form, total)
			for _, s := range plan {
				assert.GreaterOrEqual(t, s.Measures, 0)
			}
		}
	}
}

func TestPlan_Rondo(t *testing.T) {
	plan := Plan(40, FormRondo)
	require.Len(t, plan, 7)
	names := make([]string, len(plan))
	for i, s := range plan {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"A", "B", "A", "C", "A", "B", "A_coda"}, names)
	assert.Equal(t, 8, plan[3].Measures)
	assert.Equal(t, RelationSubmediant, plan[3].KeyRelation)
	assert.Equal(t, 40, TotalMeasures(plan))
}

func TestPlan_Variations(t *testing.T) {
	plan := Plan(30, FormThemeVariations)
	require.Len(t, plan, 7)
	assert.Equal(t, "theme", plan[0].ParentSection)
	for _, s := range plan {
		assert.Equal(t, 4, s.Measures)
	}
	assert.Equal(t, RelationParallel, plan[5].KeyRelation)
}

func TestPlan_SmallTotalsAreNotEmpty(t *testing.T) {
	for _, form := range Forms() {
		for total := 1; total <= 12; total++ {
			plan := Plan(total, form)
			sum := TotalMeasures(plan)
			assert.Positive(t, sum, "%s %d", form, total)
			assert.LessOrEqual(t, sum, total, "%s %d", form, total)
		}
	}
}

func TestPlan_SmallSonataReachesEveryParent(t *testing.T) {
	for total := 3; total <= 12; total++ {
		used := map[string]bool{}
		for _, s := range Plan(total, FormSonata) {
			if s.Measures > 0 {
				used[s.ParentSection] = true
			}
		}
		assert.Len(t, used, 3, "total %d", total)
	}
}

func TestPlan_FillsEmptySections(t *testing.T) {
	// round(2.4)=2, round(3.2)=3, round(2.4)=2 split over 4 subsections leaves all empty
	plan := Plan(8, FormSonata)
	assert.Equal(t, 8, TotalMeasures(plan))
	filled := []string{}
	for _, s := range plan {
		if s.Measures > 0 {
			assert.Equal(t, 1, s.Measures)
			filled = append(filled, s.Name)
		}
	}
	assert.Equal(t, []string{
		"exposition_first_theme", "exposition_transition", "exposition_second_theme",
		"development_fragmentation", "development_sequence", "development_climax",
		"recapitulation_first_theme", "recapitulation_transition_alt",
	}, filled)

	// 6/7 leaves every variation empty; the theme comes first
	plan = Plan(6, FormThemeVariations)
	assert.Equal(t, 6, TotalMeasures(plan))
	assert.Equal(t, 1, plan[0].Measures)
	assert.Equal(t, 0, plan[6].Measures)
}

func TestPlan_NonPositive(t *testing.T) {
	assert.Empty(t, Plan(0, FormSonata))
	assert.Empty(t, Plan(-3, FormRondo))
}

func TestKeyFor(t *testing.T) {
	tests := []struct {
		relation string
		want     string
	}{
		{RelationTonic, "C major"},
		{RelationDominant, "G major"},
		{RelationRetransition, "G major"},
		{RelationSubmediant, "A minor"},
		{RelationParallel, "C minor"},
		{RelationModulating, "C major"},
		{RelationVarious, "C major"},
	}
	for _, tt := range tests {
		t.Run(tt.relation, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyFor(tt.relation, music.CMajor).String())
		})
	}
}
