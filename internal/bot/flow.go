package bot

import "fmt"

// ProfileBuilder drives the guided profile flow: it sequences the fixed
// field order, validates each input, and produces a Draft on confirmation.
// It operates on a Session value; callers write the mutated session back
// to the store, so each handled event is one atomic read-modify-write.
type ProfileBuilder struct {
	fields []FieldDef
	// maxRetries caps consecutive invalid inputs for one field; exceeding
	// it cancels the flow. 0 means unlimited retries.
	maxRetries int
}

// NewProfileBuilder creates a ProfileBuilder over the given field order.
func NewProfileBuilder(fields []FieldDef, maxRetries int) (*ProfileBuilder, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("bot: profile builder: at least one field is required")
	}
	if maxRetries < 0 {
		return nil, fmt.Errorf("bot: profile builder: max retries must not be negative")
	}
	return &ProfileBuilder{fields: fields, maxRetries: maxRetries}, nil
}

// Fields returns the field definitions in prompt order.
func (b *ProfileBuilder) Fields() []FieldDef { return b.fields }

// Draft is the finished output of a completed flow: the collected fields
// in prompt order. Persistence belongs to the ProfileStore collaborator.
type Draft struct {
	UserID string
	Values []FieldValue
}

// Value returns the collected value for a field name.
func (d *Draft) Value(name string) (string, bool) {
	for _, fv := range d.Values {
		if fv.Name == name {
			return fv.Value, true
		}
	}
	return "", false
}

// Start begins the flow. The session must be Idle; otherwise
// ErrAlreadyInProgress is returned and the session is untouched.
// Returns the first field's prompt.
func (b *ProfileBuilder) Start(s *Session) (string, error) {
	if s.Step != StepIdle {
		return "", ErrAlreadyInProgress
	}
	first := b.fields[0]
	s.Step = StepAwaiting
	s.Field = first.Name
	s.Values = nil
	s.Retries = 0
	return startText(first.Prompt), nil
}

// Submit feeds raw user input to the field the session is awaiting.
// On valid input it stores the normalized value and advances to the next
// field (or to Confirming after the last field), returning the next prompt
// or the confirmation summary. On invalid input the session keeps its step
// and collected fields and the returned text is a re-prompt carrying the
// rejection reason. When the configured retry cap is exhausted the flow is
// cancelled.
func (b *ProfileBuilder) Submit(s *Session, raw string) (string, error) {
	if s.Step != StepAwaiting {
		return "", ErrNoActiveFlow
	}

	idx := b.fieldIndex(s.Field)
	if idx < 0 {
		// A session can only hold a field name this builder issued.
		return "", fmt.Errorf("bot: session awaits unknown field %q", s.Field)
	}
	def := b.fields[idx]

	value, err := def.Validate(raw)
	if err != nil {
		s.Retries++
		if b.maxRetries > 0 && s.Retries >= b.maxRetries {
			s.reset()
			return retriesExhaustedText(def.Name), nil
		}
		reason := err.Error()
		if ve, ok := err.(*ValidationError); ok {
			reason = ve.Reason
		}
		return repromptText(reason, def.Prompt), nil
	}

	s.Values = append(s.Values, FieldValue{Name: def.Name, Value: value})
	s.Retries = 0

	if idx == len(b.fields)-1 {
		s.Step = StepConfirming
		s.Field = ""
		return summaryText(s.Values), nil
	}

	next := b.fields[idx+1]
	s.Field = next.Name
	return next.Prompt, nil
}

// Summary re-renders the confirmation summary for a Confirming session.
func (b *ProfileBuilder) Summary(s *Session) (string, error) {
	if s.Step != StepConfirming {
		return "", ErrNoActiveFlow
	}
	return summaryText(s.Values), nil
}

// Confirm finishes the flow. The session must be Confirming; it moves to
// Completed and the collected fields are returned as a Draft. The caller
// persists the draft and resets the session afterwards.
func (b *ProfileBuilder) Confirm(s *Session) (*Draft, error) {
	if s.Step != StepConfirming {
		return nil, ErrNoActiveFlow
	}
	draft := &Draft{
		UserID: s.UserID,
		Values: append([]FieldValue(nil), s.Values...),
	}
	s.Step = StepCompleted
	return draft, nil
}

// Cancel aborts the flow from any non-Idle state, discarding collected
// fields. Cancelling an Idle session returns ErrNoActiveFlow.
func (b *ProfileBuilder) Cancel(s *Session) error {
	if s.Step == StepIdle {
		return ErrNoActiveFlow
	}
	s.reset()
	return nil
}

// fieldIndex returns the position of name in the prompt order, or -1.
func (b *ProfileBuilder) fieldIndex(name string) int {
	for i, f := range b.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}
