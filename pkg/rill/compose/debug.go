package compose

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rill-ml/rill/pkg/rill"
)

const debugIndent = "    "

type debugConfig struct {
	showTypes bool
	precision int
}

// DebugOption adjusts how DebugOne formats its trace.
type DebugOption func(*debugConfig)

// ShowTypes toggles the trailing type annotation on each value. Default on.
func ShowTypes(show bool) DebugOption {
	return func(c *debugConfig) {
		c.showTypes = show
	}
}

// Precision sets the number of decimals shown for floating values.
// Default 5.
func Precision(digits int) DebugOption {
	return func(c *debugConfig) {
		c.precision = digits
	}
}

// DebugOne replays the traversal on one record and returns a deterministic
// textual trace of the record's state at every step. Union branch outputs
// are computed independently on the pre-union record, then followed by the
// merged result. No stage state is updated. The trace is fully buffered
// and returned as one string with trailing whitespace trimmed.
func (p *Pipeline) DebugOne(x rill.Record, opts ...DebugOption) (string, error) {
	cfg := debugConfig{showTypes: true, precision: 5}
	for _, opt := range opts {
		opt(&cfg)
	}

	steps := p.reg.Steps()
	if len(steps) == 0 {
		return "", rill.ErrEmptyPipeline
	}

	var b strings.Builder
	writeTitle(&b, "0. Input", false)
	writeRecord(&b, x, cfg, false)

	for i, st := range steps[:len(steps)-1] {
		if u, ok := st.Stage.(rill.Union); ok {
			writeTitle(&b, fmt.Sprintf("%d. Transformer union", i+1), false)
			for j, br := range u.Branches() {
				name := br.Name
				if nested, ok := br.Stage.(*Pipeline); ok {
					name = nested.String()
				}
				writeTitle(&b, fmt.Sprintf("%d.%d %s", i+1, j, name), true)

				bt, ok := br.Stage.(rill.Transformer)
				if !ok {
					return "", &rill.CapabilityError{Stage: br.Name, Capability: "Transformer"}
				}
				out, err := bt.TransformOne(x)
				if err != nil {
					return "", &rill.StageError{Stage: br.Name, Op: "transform", Err: err}
				}
				writeRecord(&b, out, cfg, true)
			}
			merged, err := u.TransformOne(x)
			if err != nil {
				return "", err
			}
			x = merged
			writeRecord(&b, x, cfg, false)
			continue
		}

		writeTitle(&b, fmt.Sprintf("%d. %s", i+1, st.Stage.Label()), false)
		t, ok := st.Stage.(rill.Transformer)
		if !ok {
			return "", &rill.CapabilityError{Stage: st.Name, Capability: "Transformer"}
		}
		out, err := t.TransformOne(x)
		if err != nil {
			return "", &rill.StageError{Stage: st.Name, Op: "transform", Err: err}
		}
		x = out
		writeRecord(&b, x, cfg, false)
	}

	// The trailing section only exists when the final stage predicts
	// rather than transforms.
	final := steps[len(steps)-1]
	if _, ok := final.Stage.(rill.Transformer); !ok {
		writeTitle(&b, fmt.Sprintf("%d. %s", len(steps), final.Stage.Label()), false)

		if d, ok := final.Stage.(rill.Debugger); ok {
			txt, err := d.DebugOne(x)
			if err != nil {
				return "", &rill.StageError{Stage: final.Name, Op: "debug", Err: err}
			}
			b.WriteString(txt)
			b.WriteString("\n")
		}
		b.WriteString("\n")

		if c, ok := final.Stage.(rill.Classifier); ok {
			probs, err := c.PredictProbaOne(x)
			if err != nil {
				return "", &rill.StageError{Stage: final.Name, Op: "predict-probability", Err: err}
			}
			writeProbs(&b, probs)
		} else if pr, ok := final.Stage.(rill.Predictor); ok {
			y, err := pr.PredictOne(x)
			if err != nil {
				return "", &rill.StageError{Stage: final.Name, Op: "predict", Err: err}
			}
			fmt.Fprintf(&b, "Prediction: %s\n", formatValue(y, cfg.precision))
		} else {
			return "", &rill.CapabilityError{Stage: final.Name, Capability: "Predictor"}
		}
	}

	return strings.TrimRightFunc(b.String(), unicode.IsSpace), nil
}

func writeTitle(b *strings.Builder, title string, indent bool) {
	pre := ""
	if indent {
		pre = debugIndent
	}
	b.WriteString(pre + title + "\n")
	b.WriteString(pre + strings.Repeat("-", utf8.RuneCountInString(title)) + "\n")
}

// writeRecord prints the record's entries sorted by key, one per line,
// followed by a separating blank line.
func writeRecord(b *strings.Builder, x rill.Record, cfg debugConfig, indent bool) {
	pre := ""
	if indent {
		pre = debugIndent
	}
	keys := make([]string, 0, len(x))
	for k := range x {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := x[k]
		b.WriteString(pre + k + ": " + formatValue(v, cfg.precision))
		if cfg.showTypes {
			fmt.Fprintf(b, " (%T)", v)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// writeProbs prints the label/probability mapping with keys ordered by
// their text, values unrounded.
func writeProbs(b *strings.Builder, probs map[rill.Label]float64) {
	keys := make([]string, 0, len(probs))
	byText := make(map[string]float64, len(probs))
	for k, v := range probs {
		text := fmt.Sprint(k)
		keys = append(keys, text)
		byText[text] = v
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s: %v\n", k, byText[k])
	}
}

func formatValue(v any, precision int) string {
	switch f := v.(type) {
	case float64:
		return strconv.FormatFloat(f, 'f', precision, 64)
	case float32:
		return strconv.FormatFloat(float64(f), 'f', precision, 32)
	default:
		return fmt.Sprint(v)
	}
}
