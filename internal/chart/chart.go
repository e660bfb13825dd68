// Package chart builds Plotly figures from query results.
package chart

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AI2HU/askdb/internal/models"
)

// Chart types
const (
	TypeBar       = "bar"
	TypeLine      = "line"
	TypeScatter   = "scatter"
	TypePie       = "pie"
	TypeHistogram = "histogram"
	TypeIndicator = "indicator"
)

// Spec describes which chart to draw from which columns
type Spec struct {
	Type  string   `json:"type"`
	X     string   `json:"x,omitempty"`
	Y     []string `json:"y,omitempty"`
	Title string   `json:"title,omitempty"`
}

// Figure is a Plotly figure
type Figure struct {
	Data   []map[string]any `json:"data"`
	Layout map[string]any   `json:"layout"`
}

// ParseSpec reads the first JSON object in a model response. A single y
// column given as a string is accepted.
func ParseSpec(text string) (*Spec, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no chart spec in response")
	}

	var raw struct {
		Type  string          `json:"type"`
		X     string          `json:"x"`
		Y     json.RawMessage `json:"y"`
		Title string          `json:"title"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse chart spec: %w", err)
	}

	spec := &Spec{Type: strings.ToLower(strings.TrimSpace(raw.Type)), X: raw.X, Title: raw.Title}
	if len(raw.Y) > 0 && string(raw.Y) != "null" {
		var single string
		if err := json.Unmarshal(raw.Y, &single); err == nil {
			spec.Y = []string{single}
		} else if err := json.Unmarshal(raw.Y, &spec.Y); err != nil {
			return nil, fmt.Errorf("failed to parse chart spec y: %w", err)
		}
	}
	return spec, nil
}

// Validate checks spec against the columns of df
func (s *Spec) Validate(df *models.DataFrame) error {
	kinds := df.Dtypes()
	numeric := func(c string) bool {
		return kinds[c] == models.KindInt || kinds[c] == models.KindFloat
	}
	has := func(c string) bool {
		return df.ColumnIndex(c) >= 0
	}

	switch s.Type {
	case TypeIndicator:
		if len(s.Y) == 0 || !has(s.Y[0]) {
			return fmt.Errorf("indicator needs a value column")
		}
		return nil
	case TypeHistogram:
		if !has(s.X) {
			return fmt.Errorf("unknown x column %q", s.X)
		}
		return nil
	case TypePie:
		if !has(s.X) {
			return fmt.Errorf("unknown x column %q", s.X)
		}
	case TypeBar, TypeLine, TypeScatter:
		if s.X != "" && !has(s.X) {
			return fmt.Errorf("unknown x column %q", s.X)
		}
		if len(s.Y) == 0 {
			return fmt.Errorf("%s chart needs y columns", s.Type)
		}
	default:
		return fmt.Errorf("unsupported chart type %q", s.Type)
	}

	for _, c := range s.Y {
		if !has(c) {
			return fmt.Errorf("unknown y column %q", c)
		}
		if !numeric(c) {
			return fmt.Errorf("y column %q is not numeric", c)
		}
	}
	return nil
}

// Fallback picks a chart from the shape of df alone
func Fallback(df *models.DataFrame) *Spec {
	if df.Len() == 1 && len(df.Columns) == 1 {
		return &Spec{Type: TypeIndicator, Y: []string{df.Columns[0]}, Title: df.Columns[0]}
	}

	numeric := df.NumericColumns()
	categorical := df.CategoricalColumns()

	switch {
	case len(numeric) >= 2:
		return &Spec{Type: TypeScatter, X: numeric[0], Y: []string{numeric[1]}}
	case len(numeric) == 1 && len(categorical) >= 1:
		return &Spec{Type: TypeBar, X: categorical[0], Y: numeric}
	case len(categorical) >= 1 && df.NUnique(categorical[0]) < 10:
		return &Spec{Type: TypePie, X: categorical[0]}
	default:
		return &Spec{Type: TypeLine, Y: numeric}
	}
}

// Build renders df as a Plotly figure. A nil or invalid spec is replaced by
// Fallback.
func Build(df *models.DataFrame, spec *Spec) (*Figure, error) {
	if df == nil {
		return nil, fmt.Errorf("no data to chart")
	}
	if spec == nil || spec.Validate(df) != nil {
		spec = Fallback(df)
	}

	fig := &Figure{
		Data:   []map[string]any{},
		Layout: map[string]any{},
	}
	if spec.Title != "" {
		fig.Layout["title"] = map[string]any{"text": spec.Title}
	}

	switch spec.Type {
	case TypeIndicator:
		var value any
		if len(spec.Y) > 0 && df.Len() > 0 {
			value = df.Column(spec.Y[0])[0]
		}
		fig.Data = append(fig.Data, map[string]any{
			"type":  "indicator",
			"mode":  "number",
			"value": value,
		})
	case TypePie:
		labels, values := pieValues(df, spec)
		fig.Data = append(fig.Data, map[string]any{
			"type":   "pie",
			"labels": labels,
			"values": values,
		})
	case TypeHistogram:
		fig.Data = append(fig.Data, map[string]any{
			"type": "histogram",
			"x":    df.Column(spec.X),
		})
		fig.Layout["xaxis"] = axis(spec.X)
	default:
		xs := xValues(df, spec.X)
		for _, y := range spec.Y {
			trace := map[string]any{
				"x":    xs,
				"y":    df.Column(y),
				"name": y,
			}
			switch spec.Type {
			case TypeBar:
				trace["type"] = "bar"
			case TypeLine:
				trace["type"] = "scatter"
				trace["mode"] = "lines"
			default:
				trace["type"] = "scatter"
				trace["mode"] = "markers"
			}
			fig.Data = append(fig.Data, trace)
		}
		if spec.X != "" {
			fig.Layout["xaxis"] = axis(spec.X)
		}
		if len(spec.Y) == 1 {
			fig.Layout["yaxis"] = axis(spec.Y[0])
		}
	}

	return fig, nil
}

// JSON renders the figure as the string the front end parses
func (f *Figure) JSON() (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("failed to marshal figure: %w", err)
	}
	return string(data), nil
}

func axis(title string) map[string]any {
	return map[string]any{"title": map[string]any{"text": title}}
}

// xValues returns the x column, or the row index when x is empty
func xValues(df *models.DataFrame, x string) []any {
	if x != "" {
		return df.Column(x)
	}
	idx := make([]any, df.Len())
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// pieValues sums y per label, or counts rows per label without y
func pieValues(df *models.DataFrame, spec *Spec) ([]any, []float64) {
	var labels []any
	totals := make(map[string]int)
	var values []float64

	var ys []any
	if len(spec.Y) > 0 {
		ys = df.Column(spec.Y[0])
	}

	for i, label := range df.Column(spec.X) {
		key := fmt.Sprint(label)
		pos, ok := totals[key]
		if !ok {
			pos = len(labels)
			totals[key] = pos
			labels = append(labels, label)
			values = append(values, 0)
		}
		if ys == nil {
			values[pos]++
			continue
		}
		if f, ok := models.ToFloat(ys[i]); ok {
			values[pos] += f
		}
	}
	return labels, values
}
