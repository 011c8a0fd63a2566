package apple

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSevenSilver128ATT(t *testing.T) {
	sel := Selection{Model: ModelSeven, Color: ColorSilver, Capacity: 128, Carrier: "ATT", Zip: "94103"}

	codes, err := sel.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "MN9J2LL%2FA", codes.Part)
	assert.Equal(t, "ATT%2FUS", codes.Carrier)
}

func TestCarrierCodeIgnoresCase(t *testing.T) {
	for _, name := range Carriers() {
		want, err := CarrierCode(name)
		require.NoError(t, err)

		for _, variant := range []string{strings.ToUpper(name), strings.ToUpper(name[:1]) + name[1:], " " + name + " "} {
			got, err := CarrierCode(variant)
			require.NoError(t, err, variant)
			assert.Equal(t, want, got, variant)
		}
	}
}

func TestCarrierCodeDefaultsToATT(t *testing.T) {
	code, err := CarrierCode("")
	require.NoError(t, err)
	assert.Equal(t, "ATT%2FUS", code)
}

func TestCatalogEntriesResolve(t *testing.T) {
	entries := Catalog()
	require.Len(t, entries, 28)

	seen := make(map[string]bool)
	for _, e := range entries {
		code, err := PartCode(e.Model, e.Color, e.Capacity)
		require.NoError(t, err)
		assert.NotEmpty(t, code)
		assert.Equal(t, e.Part, code)
		assert.True(t, strings.HasSuffix(code, "LL%2FA"), code)
		assert.False(t, seen[code], "duplicate part %s", code)
		seen[code] = true
	}
}

func TestPartCodeUnknown(t *testing.T) {
	testCases := []struct {
		name     string
		model    Model
		color    Color
		capacity int
		field    string
	}{
		{"unknown model", "eight", ColorSilver, 128, "model"},
		{"model is case sensitive", "Seven", ColorSilver, 128, "model"},
		{"unknown color", ModelSeven, "red", 128, "color"},
		{"color is case sensitive", ModelSeven, "jetblack", 128, "color"},
		{"jet black has no 32GB", ModelSeven, ColorJetBlack, 32, "capacity"},
		{"no 64GB", ModelPlus, ColorGold, 64, "capacity"},
		{"zero capacity", ModelPlus, ColorGold, 0, "capacity"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, err := PartCode(tc.model, tc.color, tc.capacity)
			assert.Empty(t, code)
			require.ErrorIs(t, err, ErrUnknownProduct)

			var upe *UnknownProductError
			require.True(t, errors.As(err, &upe))
			assert.Equal(t, tc.field, upe.Field)
		})
	}
}

func TestResolveUnknownCarrier(t *testing.T) {
	sel := Selection{Model: ModelPlus, Color: ColorRose, Capacity: 256, Carrier: "cricket"}
	_, err := sel.Resolve()

	var upe *UnknownProductError
	require.True(t, errors.As(err, &upe))
	assert.Equal(t, "carrier", upe.Field)
	assert.Equal(t, "cricket", upe.Value)
}

func TestModelDisplayName(t *testing.T) {
	assert.Equal(t, "iphone 7 plus", ModelPlus.DisplayName())
	assert.Equal(t, "iphone 7", ModelSeven.DisplayName())
}
