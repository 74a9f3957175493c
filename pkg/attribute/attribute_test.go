package attribute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestSpecValidate_UnitIffNumeric(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr error
	}{
		{"numeric with unit", Spec{Validation: Numeric, Unit: "mm", Values: []string{"10", "12.5"}}, nil},
		{"numeric without unit", Spec{Validation: Numeric, Values: []string{"10"}}, ErrUnitRequired},
		{"alpha with unit", Spec{Validation: Alpha, Unit: "mm"}, ErrUnitNotAllowed},
		{"no validation with unit", Spec{Unit: "kg"}, ErrUnitNotAllowed},
		{"no validation no unit", Spec{Values: []string{"anything-goes"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSpecValidate_Values(t *testing.T) {
	assert.Error(t, Spec{Validation: Numeric, Unit: "mm", Values: []string{"ten"}}.Validate())
	assert.Error(t, Spec{Validation: Alpha, Values: []string{"M10"}}.Validate())
	assert.NoError(t, Spec{Validation: Alphanumeric, Values: []string{"M10 A2"}}.Validate())
	assert.Error(t, Spec{Values: []string{"toolong"}, MaxLength: intPtr(3)}.Validate())
	assert.Error(t, Spec{MaxLength: intPtr(0)}.Validate())
	assert.Error(t, Spec{Validation: "hex"}.Validate())
}

func TestSetValidate(t *testing.T) {
	require.Error(t, Set{}.Validate())

	set := Set{
		"Diameter": {Validation: Numeric, Unit: "mm", Values: []string{"8", "10"}, PrintPriority: 1},
		"Material": {Validation: Alpha, Values: []string{"Steel"}, PrintPriority: 2},
	}
	require.NoError(t, set.Validate())

	set["Finish"] = Spec{Validation: Numeric}
	err := set.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Finish"`)
}

func TestSetNames_OrderedByPriority(t *testing.T) {
	set := Set{
		"b": {PrintPriority: 2},
		"a": {PrintPriority: 2},
		"z": {PrintPriority: 1},
	}
	assert.Equal(t, []string{"z", "a", "b"}, set.Names())
}
