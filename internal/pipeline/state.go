package pipeline

// State is a stage of the per-job processing lifecycle.
type State string

const (
	StateStart     State = "START"
	StateValidated State = "VALIDATED"
	StateExtracted State = "EXTRACTED"
	StateAssigned  State = "ASSIGNED"
	StateSaved     State = "SAVED"
	StateIgnored   State = "IGNORED"
	StateErrored   State = "ERRORED"
	StateLogged    State = "LOGGED"
)

var validStates = map[State]bool{
	StateStart:     true,
	StateValidated: true,
	StateExtracted: true,
	StateAssigned:  true,
	StateSaved:     true,
	StateIgnored:   true,
	StateErrored:   true,
	StateLogged:    true,
}

// IsTerminal reports whether the state permits no further transitions.
// Logged is the only terminal state: every path ends with the log append.
func (s State) IsTerminal() bool {
	return s == StateLogged
}

// IsValid reports whether s is a known pipeline state.
func (s State) IsValid() bool {
	return validStates[s]
}

func (s State) String() string {
	return string(s)
}

// Trigger is an event that moves a job between states.
type Trigger string

const (
	TriggerValidate Trigger = "VALIDATE"
	TriggerExtract  Trigger = "EXTRACT"
	TriggerAssign   Trigger = "ASSIGN"
	TriggerSave     Trigger = "SAVE"
	TriggerIgnore   Trigger = "IGNORE"
	TriggerFail     Trigger = "FAIL"
	TriggerLog      Trigger = "LOG"
)

func (t Trigger) String() string {
	return string(t)
}
