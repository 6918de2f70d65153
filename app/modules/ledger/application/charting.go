package ledgerservice

import (
	"bytes"
	"context"
	"time"

	ledgerdb "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ChartPalette colours a rating chart.
type ChartPalette struct {
	Background  drawing.Color
	PrimaryLine drawing.Color
	AccentLine  drawing.Color
	TextColor   drawing.Color
}

// DefaultPalette is used by RenderRatingChart.
var DefaultPalette = ChartPalette{
	Background:  drawing.ColorFromHex("0f1a14"),
	PrimaryLine: drawing.ColorFromHex("3fa66b"),
	AccentLine:  drawing.ColorFromHex("d4af37"),
	TextColor:   drawing.ColorFromHex("e8efe9"),
}

// RenderRatingChart draws a player's rating over time as a PNG.
func (s *LedgerService) RenderRatingChart(ctx context.Context, playerID, leagueID uuid.UUID) ([]byte, error) {
	history, err := s.repo.GetRatingHistory(ctx, nil, playerID, leagueID, 0)
	if err != nil {
		return nil, err
	}
	return GenerateRatingChart(history, DefaultPalette)
}

// GenerateRatingChart renders history (newest first, as stored) as a line
// chart. The series starts at the oldest entry's old rating.
func GenerateRatingChart(history []ledgerdb.RatingUpdate, palette ChartPalette) ([]byte, error) {
	if len(history) == 0 {
		return renderNoDataPlaceholder(palette)
	}

	n := len(history)
	xValues := make([]time.Time, 0, n+1)
	yValues := make([]float64, 0, n+1)

	oldest := history[n-1]
	xValues = append(xValues, oldest.CreatedAt.Add(-time.Hour))
	yValues = append(yValues, float64(oldest.OldRating))

	minY, maxY := yValues[0], yValues[0]
	for i := n - 1; i >= 0; i-- {
		y := float64(history[i].NewRating)
		xValues = append(xValues, history[i].CreatedAt)
		yValues = append(yValues, y)
		minY = min(minY, y)
		maxY = max(maxY, y)
	}
	if maxY-minY < 20 {
		minY -= 10
		maxY += 10
	}

	mainSeries := chart.TimeSeries{
		Name:    "Rating",
		XValues: xValues,
		YValues: yValues,
		Style: chart.Style{
			StrokeColor: palette.PrimaryLine,
			StrokeWidth: 2,
			DotWidth:    4,
			DotColor:    palette.AccentLine,
		},
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
		},
		YAxis: chart.YAxis{
			Name: "Rating",
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
			Range: &chart.ContinuousRange{
				Min: minY,
				Max: maxY,
			},
		},
		Series: []chart.Series{mainSeries},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No rating history found"
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(palette.TextColor)
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
