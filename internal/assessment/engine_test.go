package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorizeBoundaries(t *testing.T) {
	cases := []struct {
		instrument Instrument
		total      int
		want       string
	}{
		{PHQ9, 0, "None to Mild Depression"},
		{PHQ9, 9, "None to Mild Depression"},
		{PHQ9, 10, "Moderate Depression"},
		{PHQ9, 14, "Moderate Depression"},
		{PHQ9, 15, "Moderately Severe Depression"},
		{PHQ9, 19, "Moderately Severe Depression"},
		{PHQ9, 20, "Severe Depression"},
		{PHQ9, 27, "Severe Depression"},
		{GAD7, 0, "None to Mild Anxiety"},
		{GAD7, 9, "None to Mild Anxiety"},
		{GAD7, 10, "Moderate Anxiety"},
		{GAD7, 14, "Moderate Anxiety"},
		{GAD7, 15, "Severe Anxiety"},
		{GAD7, 21, "Severe Anxiety"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Categorize(tc.instrument, tc.total), "%s total=%d", tc.instrument, tc.total)
	}
}

func TestCategorizeUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", Categorize(Instrument("BDI"), 5))
	assert.Equal(t, "Unknown", Categorize(PHQ9, -1))
	assert.Equal(t, "Unknown", Severity(GAD7, -3))
}

func TestSeverityIsBareBand(t *testing.T) {
	assert.Equal(t, "Moderately Severe", Severity(PHQ9, 17))
	assert.Equal(t, "Severe", Severity(GAD7, 15))
}

func TestNeedsEscalation(t *testing.T) {
	assert.False(t, NeedsEscalation(9))
	assert.True(t, NeedsEscalation(10))
	assert.True(t, NeedsEscalation(27))
}

func TestEvaluateAllZeros(t *testing.T) {
	ev, err := Evaluate(PHQ9, Responses{0, 0, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, ev.TotalScore)
	assert.Equal(t, "None to Mild Depression", ev.Category)
	assert.False(t, ev.Escalation)
}

func TestEvaluateSevereDepression(t *testing.T) {
	ev, err := Evaluate(PHQ9, Responses{3, 3, 3, 3, 3, 3, 2, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 22, ev.TotalScore)
	assert.Equal(t, "Severe Depression", ev.Category)
	assert.Equal(t, "Severe", ev.Severity)
	assert.True(t, ev.Escalation)
}

func TestEvaluateGADModerate(t *testing.T) {
	ev, err := Evaluate(GAD7, Responses{2, 2, 2, 2, 1, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 10, ev.TotalScore)
	assert.Equal(t, "Moderate Anxiety", ev.Category)
	assert.True(t, ev.Escalation)
}

func TestEvaluateRejectsMalformed(t *testing.T) {
	cases := map[string]struct {
		instrument Instrument
		responses  Responses
	}{
		"too short":    {PHQ9, Responses{0, 0, 0}},
		"too long":     {GAD7, Responses{0, 0, 0, 0, 0, 0, 0, 0, 0}},
		"out of range": {GAD7, Responses{0, 0, 4, 0, 0, 0, 0}},
		"negative":     {PHQ9, Responses{0, 0, 0, 0, -1, 0, 0, 0, 0}},
		"nil":          {GAD7, nil},
	}
	for name, tc := range cases {
		_, err := Evaluate(tc.instrument, tc.responses)
		assert.ErrorIs(t, err, ErrMalformedResponse, name)
	}
}

func TestEvaluateUnknownInstrument(t *testing.T) {
	_, err := Evaluate(Instrument("PHQ-2"), Responses{0, 0})
	assert.ErrorIs(t, err, ErrUnknownInstrument)
}

func TestParseInstrument(t *testing.T) {
	for raw, want := range map[string]Instrument{
		"PHQ-9":  PHQ9,
		"phq9":   PHQ9,
		" phq_9": PHQ9,
		"gad-7":  GAD7,
		"GAD7":   GAD7,
	} {
		got, err := ParseInstrument(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	_, err := ParseInstrument("bdi")
	assert.ErrorIs(t, err, ErrUnknownInstrument)
}

func TestDescribe(t *testing.T) {
	q, err := Describe(PHQ9)
	require.NoError(t, err)
	assert.Len(t, q.Questions, 9)
	assert.Equal(t, []string{"Not at all", "Several days", "More than half the days", "Nearly every day"}, q.Options)
	assert.Equal(t, "PHQ-9 (Depression)", q.Title)

	q, err = Describe(GAD7)
	require.NoError(t, err)
	assert.Len(t, q.Questions, 7)
	assert.Equal(t, "Feeling nervous, anxious, or on edge", q.Questions[0])

	_, err = Describe("")
	assert.ErrorIs(t, err, ErrUnknownInstrument)
}
