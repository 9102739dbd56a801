package charts_test

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/dom/trivia-night/internal/charts"
	"github.com/dom/trivia-night/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestProgress(t *testing.T) {
	teams := []domain.Team{
		{ID: "A", Name: "Owls", Color: "#ff8800"},
		{ID: "B", Name: "Foxes", Color: "not-a-color"},
		{ID: "C", Name: "Bears"},
	}
	steps := []charts.Step{{ID: "r1", Label: "Round 1"}, {ID: "r2", Label: "Round 2"}, {ID: "r3", Label: "Round 3"}}

	tests := []struct {
		name     string
		progress map[string]map[string]int
		width    int
	}{
		{
			name: "partial game",
			progress: map[string]map[string]int{
				"A": {"r1": 3, "r2": 4},
				"B": {"r1": 1, "r2": 6},
				"C": {"r1": 0},
			},
			width: 900,
		},
		{
			name: "negative scores",
			progress: map[string]map[string]int{
				"A": {"r1": -2},
				"B": {"r1": 0},
				"C": {"r1": -1},
			},
			width: 900,
		},
		{
			name:     "nothing played",
			progress: map[string]map[string]int{"A": {}, "B": {}, "C": {}},
			width:    400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := charts.Progress("Scores", steps, teams, tt.progress)
			require.NoError(t, err)
			w, _ := decode(t, data)
			assert.Equal(t, tt.width, w)
		})
	}
}

func TestProgress_NoTeams(t *testing.T) {
	data, err := charts.Progress("Scores", []charts.Step{{ID: "q1", Label: "1"}}, nil, nil)
	require.NoError(t, err)
	w, h := decode(t, data)
	assert.Equal(t, 400, w)
	assert.Equal(t, 200, h)
}
