package assessment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mindwell/wellbeing-platform/internal/resources"
)

// Result is one persisted screening submission. Results are append-only.
type Result struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Instrument Instrument `json:"instrument"`
	TotalScore int        `json:"total_score"`
	Category   string     `json:"category"`
	Timestamp  time.Time  `json:"timestamp"`
}

// ResultStore is the append-only result log. List returns results ordered by
// timestamp ascending, then by ID for equal timestamps; an empty instrument
// matches all.
type ResultStore interface {
	Append(ctx context.Context, r Result) error
	List(ctx context.Context, userID string, instrument Instrument) ([]Result, error)
}

// Outcome is what a submission returns to the caller.
type Outcome struct {
	Result
	Severity   string            `json:"severity"`
	Escalation bool              `json:"escalation"`
	Notice     string            `json:"notice,omitempty"`
	Crisis     *resources.Crisis `json:"crisis,omitempty"`
}

type Service struct {
	store   ResultStore
	nowFunc func() time.Time
}

func NewService(store ResultStore) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("result store is required")
	}
	return &Service{store: store, nowFunc: time.Now}, nil
}

// Submit evaluates responses and appends the result. Every valid submission is
// recorded, including a total of zero.
func (s *Service) Submit(ctx context.Context, userID string, instrument Instrument, responses Responses) (Outcome, error) {
	if strings.TrimSpace(userID) == "" {
		return Outcome{}, fmt.Errorf("user id is required")
	}
	ev, err := Evaluate(instrument, responses)
	if err != nil {
		return Outcome{}, err
	}

	r := Result{
		ID:         uuid.NewString(),
		UserID:     userID,
		Instrument: instrument,
		TotalScore: ev.TotalScore,
		Category:   ev.Category,
		Timestamp:  s.nowFunc().UTC(),
	}
	if err := s.store.Append(ctx, r); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Result: r, Severity: ev.Severity, Escalation: ev.Escalation}
	if ev.Escalation {
		crisis := resources.EmergencyHelpline()
		out.Notice = resources.ProfessionalHelpNotice
		out.Crisis = &crisis
	}
	return out, nil
}

func (s *Service) History(ctx context.Context, userID string, instrument Instrument) ([]Result, error) {
	if instrument != "" && !instrument.Valid() {
		return nil, ErrUnknownInstrument
	}
	return s.store.List(ctx, userID, instrument)
}
