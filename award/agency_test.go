package award

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semledger/entity"
	"github.com/c360/semledger/extract"
	"github.com/c360/semledger/relation"
	"github.com/c360/semledger/validate"
)

func newTestAgency(t *testing.T, deps Deps) *Agency {
	t.Helper()
	a, err := NewAgency(AgencyConfig{
		OutputPath: filepath.Join(t.TempDir(), "agencies.json"),
	}, deps)
	require.NoError(t, err)
	return a
}

func fullHierarchyRow() map[string]any {
	return map[string]any{
		"awarding_agency_code":     "012",
		"awarding_agency_name":     "Department of Example",
		"awarding_sub_agency_code": "1200",
		"awarding_sub_agency_name": "Example Agency",
		"awarding_office_code":     "OFF1",
		"awarding_office_name":     "Example Office",
	}
}

func TestNewAgency(t *testing.T) {
	a := newTestAgency(t, Deps{})

	assert.Equal(t, "agencies", a.Name())
	assert.Equal(t, "agency", a.EntityType())
}

func TestAgency_AddRowFullHierarchy(t *testing.T) {
	a := newTestAgency(t, Deps{})

	results := a.AddRow(fullHierarchyRow())
	require.Len(t, results, 3)
	assert.True(t, results[LevelDepartment].IsInserted())
	assert.True(t, results[LevelAgency].IsInserted())
	assert.True(t, results[LevelOffice].IsInserted())

	assert.Equal(t, "agency:toptier_code=012", results[LevelDepartment].Key)
	assert.Equal(t, "agency:subtier_code=1200", results[LevelAgency].Key)
	assert.Equal(t, "agency:office_code=OFF1", results[LevelOffice].Key)

	dept, ok := a.Get("agency:toptier_code=012")
	require.True(t, ok)
	assert.Equal(t, "Department of Example", dept.Fields["name"])
	assert.Equal(t, LevelDepartment, dept.Level)

	g := a.Graph()
	assert.Equal(t, []string{"agency:subtier_code=1200"},
		g.Related("agency:toptier_code=012", relation.HasSubagency))
	assert.Equal(t, []string{"agency:toptier_code=012"},
		g.Related("agency:subtier_code=1200", relation.BelongsToAgency))
	assert.Equal(t, []string{"agency:office_code=OFF1"},
		g.Related("agency:subtier_code=1200", relation.HasOffice))
	assert.Equal(t, []string{"agency:subtier_code=1200"},
		g.Related("agency:office_code=OFF1", relation.BelongsToSubagency))
}

func TestAgency_AddRowPartialHierarchy(t *testing.T) {
	a := newTestAgency(t, Deps{})

	results := a.AddRow(map[string]any{
		"awarding_agency_code":     "012",
		"awarding_agency_name":     "Department of Example",
		"awarding_sub_agency_code": "1200",
		"awarding_sub_agency_name": "Example Agency",
	})
	require.Len(t, results, 2)
	assert.True(t, results[LevelDepartment].IsInserted())
	assert.True(t, results[LevelAgency].IsInserted())

	g := a.Graph()
	assert.True(t, g.HasRelated("agency:toptier_code=012", relation.HasSubagency))
	assert.False(t, g.HasRelated("agency:subtier_code=1200", relation.HasOffice))
}

func TestAgency_AddRowGapLinksNothingAcross(t *testing.T) {
	a := newTestAgency(t, Deps{})

	results := a.AddRow(map[string]any{
		"awarding_agency_code": "012",
		"awarding_agency_name": "Department of Example",
		"awarding_office_code": "OFF1",
		"awarding_office_name": "Example Office",
	})
	require.Len(t, results, 2)

	assert.Equal(t, 2, a.Len())
	assert.Zero(t, a.Stats().RelationshipTotal())
}

func TestAgency_AddRowNoRelevantData(t *testing.T) {
	a := newTestAgency(t, Deps{})

	results := a.AddRow(map[string]any{"recipient_uei": "UEI000000001"})
	assert.Nil(t, results)

	stats := a.Stats()
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Skipped[entity.SkipNoRelevantData])
	assert.Zero(t, a.Len())
}

func TestAgency_AddRowRepeatedMerges(t *testing.T) {
	a := newTestAgency(t, Deps{})

	first := a.AddRow(fullHierarchyRow())
	require.Len(t, first, 3)

	second := a.AddRow(fullHierarchyRow())
	require.Len(t, second, 3)
	assert.True(t, second[LevelDepartment].IsMerged())
	assert.True(t, second[LevelAgency].IsMerged())
	assert.True(t, second[LevelOffice].IsMerged())

	stats := a.Stats()
	assert.Equal(t, 3, stats.Unique)
	assert.Equal(t, 6, stats.Total)
}

func TestAgency_AddRowBlankCodeSkipsLevel(t *testing.T) {
	a := newTestAgency(t, Deps{})

	results := a.AddRow(map[string]any{
		"awarding_agency_code":     "   ",
		"awarding_agency_name":     "Department of Example",
		"awarding_sub_agency_code": "1200",
		"awarding_sub_agency_name": "Example Agency",
	})
	require.Len(t, results, 2)
	assert.True(t, results[LevelDepartment].IsSkipped())
	assert.Equal(t, entity.SkipMissingKeyFields, results[LevelDepartment].Reason)
	assert.True(t, results[LevelAgency].IsInserted())

	assert.Equal(t, 1, a.Len())
}

func TestAgency_LevelMappingOverride(t *testing.T) {
	a, err := NewAgency(AgencyConfig{
		OutputPath: filepath.Join(t.TempDir(), "agencies.json"),
		LevelMappings: map[string][]extract.Mapping{
			LevelDepartment: {
				{Source: []string{"dept_code"}, Target: "toptier_code", Transforms: []string{"trim"}},
				{Source: []string{"dept_name"}, Target: "name", Transforms: []string{"trim"}},
			},
		},
	}, Deps{})
	require.NoError(t, err)

	results := a.AddRow(map[string]any{
		"dept_code": "012",
		"dept_name": "Department of Example",
	})
	require.Len(t, results, 1)
	assert.Equal(t, "agency:toptier_code=012", results[LevelDepartment].Key)
}

func TestAgency_InvalidMappingRejected(t *testing.T) {
	_, err := NewAgency(AgencyConfig{
		OutputPath: filepath.Join(t.TempDir(), "agencies.json"),
		LevelMappings: map[string][]extract.Mapping{
			LevelOffice: {{Source: []string{"x"}, Target: ""}},
		},
	}, Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "office extractor")
}

func TestAgency_ValidatorRejectsLevel(t *testing.T) {
	rejectDept := validate.ValidatorFunc(func(entityType string, data, _ map[string]any) []validate.Result {
		if code, ok := data["toptier_code"].(string); ok && code == "999" {
			return []validate.Result{validate.Fail(validate.ErrorTypeInvalidValue, "toptier_code", "toptier code %s is reserved", code)}
		}
		return nil
	})

	a := newTestAgency(t, Deps{Validator: rejectDept})

	row := fullHierarchyRow()
	row["awarding_agency_code"] = "999"
	results := a.AddRow(row)
	require.Len(t, results, 2)
	assert.True(t, results[LevelAgency].IsInserted())
	assert.True(t, results[LevelOffice].IsInserted())

	stats := a.Stats()
	assert.Equal(t, 1, stats.Skipped[entity.SkipInvalidInput])
	assert.Equal(t, 2, a.Len())
}
