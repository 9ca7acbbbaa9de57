package fields

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingAcceptsStringAndNumber(t *testing.T) {
	var v struct {
		Rating Rating `json:"rating"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"rating":"8.6"}`), &v))
	assert.Equal(t, Rating("8.6"), v.Rating)
	assert.InDelta(t, 8.6, v.Rating.Float(), 1e-9)

	require.NoError(t, json.Unmarshal([]byte(`{"rating":7.5}`), &v))
	assert.Equal(t, Rating("7.5"), v.Rating)

	assert.Error(t, json.Unmarshal([]byte(`{"rating":true}`), &v))
}

func TestRatingFloatUnparseable(t *testing.T) {
	assert.Zero(t, Rating("n/a").Float())
	assert.Equal(t, Rating("8"), NewRating(8.0))
}

func TestGenreValid(t *testing.T) {
	assert.True(t, GenreDrama.Valid())
	assert.False(t, GenreAll.Valid())
	assert.False(t, Genre("western").Valid())
}
