package harmonize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformType(t *testing.T) {
	tests := []struct {
		in        string
		want      TransformType
		canonical bool
		wantErr   bool
	}{
		{in: "transform_json1", want: TypeIFRSToEFRAG, canonical: true},
		{in: "transform_json2", want: TypeEFRAGToIFRS, canonical: true},
		{in: "transform1", want: TypeCityEmissions},
		{in: " transform2 ", want: TypeCityEmissionsES},
		{in: "quarterly_rollup", want: TransformType("quarterly_rollup")},
		{in: "", wantErr: true},
		{in: "two words", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTransformType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.canonical, got.Canonical())
		})
	}
}

func TestTransformType_Label(t *testing.T) {
	assert.Equal(t, "Transform IFRS->EFRAG", TypeIFRSToEFRAG.Label())
	assert.Equal(t, "custom", TransformType("custom").Label())
	assert.Len(t, KnownTypes(), 4)
}

func TestDecodeTransformResult(t *testing.T) {
	t.Run("canonical and tabular at once", func(t *testing.T) {
		res, err := DecodeTransformResult(TypeIFRSToEFRAG, "[1,2]")
		require.NoError(t, err)
		assert.True(t, res.HasDocument)
		assert.True(t, res.Table.Empty(), "header-only text has no records")
	})

	t.Run("free-form never yields a document", func(t *testing.T) {
		res, err := DecodeTransformResult(TypeCityEmissions, `{"a": 1}`)
		require.NoError(t, err)
		assert.False(t, res.HasDocument)
	})

	t.Run("free-form empty data", func(t *testing.T) {
		res, err := DecodeTransformResult(TypeCityEmissions, "")
		require.NoError(t, err)
		assert.True(t, res.Empty())
	})

	t.Run("canonical data must be JSON", func(t *testing.T) {
		_, err := DecodeTransformResult(TypeEFRAGToIFRS, "KeyError: 'E1'")
		assert.ErrorIs(t, err, ErrDecode)
	})
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt(`{"a":1}`, "target schema\n")

	assert.Equal(t, "Data Schema A:\n\n{\n  \"a\": 1\n}\n\nData Schema B:\n\ntarget schema", got)
}
