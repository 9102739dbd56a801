// Package charts renders score progress as PNG line charts.
package charts

import (
	"bytes"
	"strings"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	width  = 900
	height = 450
)

// Step is one point of the x axis: a question of a round or a round of a game.
type Step struct {
	ID    string
	Label string
}

// Progress draws one line per team. progress maps team id to step id to
// the cumulative score after that step. Every line starts at zero and stops
// at the last step any team has a value for.
func Progress(title string, steps []Step, teams []domain.Team, progress map[string]map[string]int) ([]byte, error) {
	played := playedSteps(steps, progress)
	if played == 0 || len(teams) == 0 {
		return renderNoDataPlaceholder("No scores yet")
	}

	ymin, ymax := 0.0, 1.0
	series := make([]chart.Series, 0, len(teams))
	for i, team := range teams {
		xs := make([]float64, 0, played+1)
		ys := make([]float64, 0, played+1)
		xs, ys = append(xs, 0), append(ys, 0)
		last := 0
		for j := 0; j < played; j++ {
			if v, ok := progress[team.ID][steps[j].ID]; ok {
				last = v
			}
			y := float64(last)
			xs = append(xs, float64(j+1))
			ys = append(ys, y)
			ymin, ymax = min(ymin, y), max(ymax, y)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    team.Name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: teamColor(team, i),
				StrokeWidth: 3,
				DotWidth:    4,
				DotColor:    teamColor(team, i),
			},
		})
	}

	ticks := make([]chart.Tick, 0, played+1)
	ticks = append(ticks, chart.Tick{Value: 0, Label: "Start"})
	for j := 0; j < played; j++ {
		ticks = append(ticks, chart.Tick{Value: float64(j + 1), Label: steps[j].Label})
	}

	graph := chart.Chart{
		Title:  title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: 0, Max: float64(played)},
		},
		YAxis: chart.YAxis{
			Name:  "Score",
			Range: &chart.ContinuousRange{Min: ymin, Max: ymax},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// playedSteps counts the leading steps some team has a score for.
func playedSteps(steps []Step, progress map[string]map[string]int) int {
	played := 0
	for j, s := range steps {
		for _, byStep := range progress {
			if _, ok := byStep[s.ID]; ok {
				played = j + 1
				break
			}
		}
	}
	return played
}

// teamColor uses the team's hex color, or a palette color when it has none
// or it does not parse.
func teamColor(team domain.Team, i int) drawing.Color {
	hex := strings.TrimPrefix(team.Color, "#")
	if (len(hex) == 3 || len(hex) == 6) && isHex(hex) {
		return drawing.ColorFromHex(hex)
	}
	return chart.GetDefaultColor(i)
}

func isHex(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

func renderNoDataPlaceholder(msg string) ([]byte, error) {
	// go-chart needs one visible series to render anything.
	blank := chart.ContinuousSeries{
		XValues: []float64{0, 1},
		YValues: []float64{0, 1},
		Style:   chart.Style{StrokeColor: drawing.ColorTransparent},
	}
	graph := chart.Chart{
		Width:  400,
		Height: 200,
		XAxis:  chart.XAxis{Style: chart.Hidden()},
		YAxis:  chart.YAxis{Style: chart.Hidden()},
		Series: []chart.Series{blank},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(drawing.ColorBlack)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
