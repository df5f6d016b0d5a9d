package domain

// Traits shape an employee's tone. Values are 0-100.
type Traits struct {
	Formality  int `json:"formality" yaml:"formality"`
	Creativity int `json:"creativity" yaml:"creativity"`
	Verbosity  int `json:"verbosity" yaml:"verbosity"`
	Humor      int `json:"humor" yaml:"humor"`
}

// Employee is a persona driving model conversations.
type Employee struct {
	ID      EmployeeID `json:"id" yaml:"id"`
	Name    string     `json:"name" yaml:"name"`
	Role    string     `json:"role" yaml:"role"`
	Avatar  string     `json:"avatar,omitempty" yaml:"avatar"`
	Persona string     `json:"persona" yaml:"persona"`
	Traits  Traits     `json:"traits" yaml:"traits"`
	Morale  int        `json:"morale" yaml:"morale"`

	// Assistant grants company-wide visibility in the instruction context.
	Assistant bool `json:"assistant,omitempty" yaml:"assistant"`
	// InstantResponder skips reply pacing in brainstorm rounds.
	InstantResponder bool `json:"instant_responder,omitempty" yaml:"instant_responder"`
	// Tools restricts the kinds this employee may emit. Empty means all kinds.
	Tools []ActionKind `json:"tools,omitempty" yaml:"tools"`
}

type MoraleBand string

const (
	MoraleLow      MoraleBand = "low"
	MoraleStandard MoraleBand = "standard"
	MoraleHigh     MoraleBand = "high"
)

const (
	moraleLowBelow  = 35
	moraleHighAbove = 75
)

func (e *Employee) MoraleBand() MoraleBand {
	switch {
	case e.Morale < moraleLowBelow:
		return MoraleLow
	case e.Morale > moraleHighAbove:
		return MoraleHigh
	default:
		return MoraleStandard
	}
}

// AvailableTools returns the kinds the employee may emit.
func (e *Employee) AvailableTools() []ActionKind {
	if len(e.Tools) == 0 {
		return AllActionKinds
	}
	out := make([]ActionKind, 0, len(e.Tools))
	for _, k := range AllActionKinds {
		for _, allowed := range e.Tools {
			if k == allowed {
				out = append(out, k)
				break
			}
		}
	}
	return out
}

func (e *Employee) Speaker() *Speaker {
	return &Speaker{EmployeeID: e.ID, Name: e.Name, Avatar: e.Avatar}
}

func ClampMorale(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
