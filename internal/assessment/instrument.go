package assessment

import (
	"errors"
	"strings"
)

var ErrUnknownInstrument = errors.New("unknown screening instrument")

type Instrument string

const (
	PHQ9 Instrument = "PHQ-9"
	GAD7 Instrument = "GAD-7"
)

// Instruments lists the supported questionnaires in display order.
var Instruments = []Instrument{PHQ9, GAD7}

// OptionLabels are shared by both questionnaires; the index is the score.
var OptionLabels = []string{"Not at all", "Several days", "More than half the days", "Nearly every day"}

// MaxItemScore is the highest value a single response may take.
const MaxItemScore = 3

var phq9Questions = []string{
	"Little interest or pleasure in doing things",
	"Feeling down, depressed, or hopeless",
	"Trouble falling or staying asleep, or sleeping too much",
	"Feeling tired or having little energy",
	"Poor appetite or overeating",
	"Feeling bad about yourself, or that you are a failure or have let yourself or your family down",
	"Trouble concentrating on things, such as reading the newspaper or watching television",
	"Moving or speaking so slowly that other people could have noticed? Or the opposite, being so fidgety or restless that you have been moving around a lot more than usual",
	"Thoughts that you would be better off dead or of hurting yourself in some way",
}

var gad7Questions = []string{
	"Feeling nervous, anxious, or on edge",
	"Not being able to stop or control worrying",
	"Worrying too much about different things",
	"Trouble relaxing",
	"Being so restless that it is hard to sit still",
	"Becoming easily annoyed or irritable",
	"Feeling afraid as if something awful might happen",
}

// Questionnaire is the client-facing description of an instrument.
type Questionnaire struct {
	Instrument Instrument `json:"instrument"`
	Title      string     `json:"title"`
	Questions  []string   `json:"questions"`
	Options    []string   `json:"options"`
}

// ParseInstrument accepts the canonical name and the common spellings used in
// URLs ("phq9", "phq-9", "gad7").
func ParseInstrument(raw string) (Instrument, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), "_", "-")) {
	case "PHQ-9", "PHQ9":
		return PHQ9, nil
	case "GAD-7", "GAD7":
		return GAD7, nil
	default:
		return "", ErrUnknownInstrument
	}
}

func (i Instrument) Valid() bool {
	return i == PHQ9 || i == GAD7
}

// Length is the number of items in the instrument, or 0 when unknown.
func (i Instrument) Length() int {
	return len(i.questions())
}

// Condition is the clinical condition the instrument screens for.
func (i Instrument) Condition() string {
	switch i {
	case PHQ9:
		return "Depression"
	case GAD7:
		return "Anxiety"
	default:
		return ""
	}
}

func (i Instrument) questions() []string {
	switch i {
	case PHQ9:
		return phq9Questions
	case GAD7:
		return gad7Questions
	default:
		return nil
	}
}

func Describe(i Instrument) (Questionnaire, error) {
	if !i.Valid() {
		return Questionnaire{}, ErrUnknownInstrument
	}
	return Questionnaire{
		Instrument: i,
		Title:      string(i) + " (" + i.Condition() + ")",
		Questions:  append([]string(nil), i.questions()...),
		Options:    append([]string(nil), OptionLabels...),
	}, nil
}
