// Package assessment scores PHQ-9 and GAD-7 questionnaires and keeps the
// history of submitted results.
package assessment

import (
	"errors"
	"fmt"
)

var ErrMalformedResponse = errors.New("malformed screening response")

// EscalationThreshold is the total at or above which crisis resources are
// shown. It is independent of the severity bands.
const EscalationThreshold = 10

// Responses holds one 0..3 answer per item, in question order.
type Responses []int

type band struct {
	lower int
	label string
}

// Lower bounds of half-open bands. The last band is unbounded above.
var bands = map[Instrument][]band{
	PHQ9: {
		{0, "None to Mild"},
		{10, "Moderate"},
		{15, "Moderately Severe"},
		{20, "Severe"},
	},
	GAD7: {
		{0, "None to Mild"},
		{10, "Moderate"},
		{15, "Severe"},
	},
}

const unknownCategory = "Unknown"

func Score(responses Responses) int {
	total := 0
	for _, r := range responses {
		total += r
	}
	return total
}

// Severity returns the bare band label for total, e.g. "Moderate".
func Severity(instrument Instrument, total int) string {
	bs, ok := bands[instrument]
	if !ok || total < 0 {
		return unknownCategory
	}
	label := unknownCategory
	for _, b := range bs {
		if total >= b.lower {
			label = b.label
		}
	}
	return label
}

// Categorize returns the full category label, e.g. "Moderate Depression".
func Categorize(instrument Instrument, total int) string {
	severity := Severity(instrument, total)
	if severity == unknownCategory {
		return unknownCategory
	}
	return severity + " " + instrument.Condition()
}

func NeedsEscalation(total int) bool {
	return total >= EscalationThreshold
}

type Evaluation struct {
	Instrument Instrument `json:"instrument"`
	TotalScore int        `json:"total_score"`
	Severity   string     `json:"severity"`
	Category   string     `json:"category"`
	Escalation bool       `json:"escalation"`
}

func Validate(instrument Instrument, responses Responses) error {
	if !instrument.Valid() {
		return ErrUnknownInstrument
	}
	if want := instrument.Length(); len(responses) != want {
		return fmt.Errorf("%w: %s expects %d answers, got %d", ErrMalformedResponse, instrument, want, len(responses))
	}
	for i, r := range responses {
		if r < 0 || r > MaxItemScore {
			return fmt.Errorf("%w: answer %d is %d, must be 0..%d", ErrMalformedResponse, i+1, r, MaxItemScore)
		}
	}
	return nil
}

// Evaluate validates responses and scores them. It has no side effects.
func Evaluate(instrument Instrument, responses Responses) (Evaluation, error) {
	if err := Validate(instrument, responses); err != nil {
		return Evaluation{}, err
	}
	total := Score(responses)
	return Evaluation{
		Instrument: instrument,
		TotalScore: total,
		Severity:   Severity(instrument, total),
		Category:   Categorize(instrument, total),
		Escalation: NeedsEscalation(total),
	}, nil
}
