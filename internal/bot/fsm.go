package bot

import (
	"strconv"
	"strings"

	"github.com/KlimSani4/hydrocalc/internal/calculator"
)

// State is a step of the guided calculation dialogue. The order is fixed:
// four head counts, then season, then activity.
type State int

const (
	StateIdle State = iota
	StateCollectingJunior
	StateCollectingMiddle
	StateCollectingSenior
	StateCollectingStaff
	StateCollectingSeason
	StateCollectingActivity
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollectingJunior:
		return "collecting_junior"
	case StateCollectingMiddle:
		return "collecting_middle"
	case StateCollectingSenior:
		return "collecting_senior"
	case StateCollectingStaff:
		return "collecting_staff"
	case StateCollectingSeason:
		return "collecting_season"
	case StateCollectingActivity:
		return "collecting_activity"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Session is one participant's dialogue progress.
type Session struct {
	State   State
	Request calculator.Request
}

// NewSession starts a dialogue at the first question.
func NewSession() Session {
	return Session{State: StateCollectingJunior}
}

type InputKind int

const (
	InputText InputKind = iota
	InputChoice
)

const (
	ChoiceSeason   = "season"
	ChoiceActivity = "activity"
)

// Input is free text or a button press ("season:cold" becomes Group "season", Value "cold").
type Input struct {
	Kind  InputKind
	Text  string
	Group string
	Value string
}

func TextInput(text string) Input {
	return Input{Kind: InputText, Text: text}
}

func ChoiceInput(group, value string) Input {
	return Input{Kind: InputChoice, Group: group, Value: value}
}

// ParseChoice splits button data of the form "group:value".
func ParseChoice(data string) (Input, bool) {
	group, value, ok := strings.Cut(data, ":")
	if !ok || group == "" || value == "" {
		return Input{}, false
	}
	return ChoiceInput(group, value), true
}

type EffectKind int

const (
	// EffectIgnore leaves everything as is.
	EffectIgnore EffectKind = iota
	// EffectPrompt asks the question of the new state.
	EffectPrompt
	// EffectReprompt repeats the current question after rejecting the input.
	EffectReprompt
	// EffectCompute runs the calculation for the collected request.
	EffectCompute
)

type RejectReason int

const (
	ReasonNone RejectReason = iota
	ReasonNotANumber
	ReasonTooLarge
	ReasonUseButtons
)

type Effect struct {
	Kind    EffectKind
	Reason  RejectReason
	Request calculator.Request
}

// Step is the dialogue transition function. It never mutates s.
func Step(s Session, in Input) (Session, Effect) {
	switch s.State {
	case StateCollectingJunior, StateCollectingMiddle, StateCollectingSenior, StateCollectingStaff:
		if in.Kind != InputText {
			return s, Effect{Kind: EffectIgnore}
		}
		n, reason := parseCount(in.Text)
		if reason != ReasonNone {
			return s, Effect{Kind: EffectReprompt, Reason: reason}
		}
		next := s
		switch s.State {
		case StateCollectingJunior:
			next.Request.JuniorCount = n
		case StateCollectingMiddle:
			next.Request.MiddleCount = n
		case StateCollectingSenior:
			next.Request.SeniorCount = n
		case StateCollectingStaff:
			next.Request.StaffCount = n
		}
		next.State = s.State + 1
		return next, Effect{Kind: EffectPrompt}

	case StateCollectingSeason:
		if in.Kind == InputText {
			return s, Effect{Kind: EffectReprompt, Reason: ReasonUseButtons}
		}
		season := calculator.Season(in.Value)
		if in.Group != ChoiceSeason || !season.Valid() {
			return s, Effect{Kind: EffectIgnore}
		}
		next := s
		next.Request.Season = season
		next.State = StateCollectingActivity
		return next, Effect{Kind: EffectPrompt}

	case StateCollectingActivity:
		if in.Kind == InputText {
			return s, Effect{Kind: EffectReprompt, Reason: ReasonUseButtons}
		}
		activity := calculator.Activity(in.Value)
		if in.Group != ChoiceActivity || !activity.Valid() {
			return s, Effect{Kind: EffectIgnore}
		}
		next := s
		next.Request.Activity = activity
		next.State = StateDone
		return next, Effect{Kind: EffectCompute, Request: next.Request}
	}
	return s, Effect{Kind: EffectIgnore}
}

// parseCount accepts only plain decimal digits up to calculator.MaxCount.
func parseCount(text string) (int, RejectReason) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, ReasonNotANumber
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, ReasonNotANumber
		}
	}
	n, err := strconv.Atoi(text)
	if err != nil || n > calculator.MaxCount {
		// all digits, so Atoi can only fail on range
		return 0, ReasonTooLarge
	}
	return n, ReasonNone
}
