package machine

import (
	"fmt"
	"strings"
)

// Definition is the declarative per-entity-type state machine contract.
type Definition struct {
	ID          string          `json:"id" yaml:"id"`
	Version     string          `json:"version,omitempty" yaml:"version,omitempty"`
	States      []StateDef      `json:"states" yaml:"states"`
	Transitions []TransitionDef `json:"transitions" yaml:"transitions"`
}

// StateDef declares one state of the machine.
type StateDef struct {
	Name     string `json:"name" yaml:"name"`
	Initial  bool   `json:"initial,omitempty" yaml:"initial,omitempty"`
	Terminal bool   `json:"terminal,omitempty" yaml:"terminal,omitempty"`
}

// TransitionDef declares a named edge: a source-state set, a target state,
// ordered gating criteria, and an optional action processor.
type TransitionDef struct {
	Name      string   `json:"name" yaml:"name"`
	From      []string `json:"from" yaml:"from"`
	To        string   `json:"to" yaml:"to"`
	Criteria  []string `json:"criteria,omitempty" yaml:"criteria,omitempty"`
	Processor string   `json:"processor,omitempty" yaml:"processor,omitempty"`
}

// Validate performs structural validation of the definition.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("machine id is required")
	}
	if len(d.States) == 0 {
		return fmt.Errorf("machine %s requires states", d.ID)
	}

	initial := 0
	states := make(map[string]bool, len(d.States))
	for idx, st := range d.States {
		name := normalizeState(st.Name)
		if name == "" {
			return fmt.Errorf("machine %s state[%d] requires a name", d.ID, idx)
		}
		if states[name] {
			return fmt.Errorf("machine %s duplicate state %q", d.ID, name)
		}
		states[name] = true
		if st.Initial {
			initial++
		}
	}
	if initial > 1 {
		return fmt.Errorf("machine %s declares %d initial states", d.ID, initial)
	}

	seen := make(map[string]bool, len(d.Transitions))
	for idx, tr := range d.Transitions {
		name := normalizeTransition(tr.Name)
		if name == "" {
			return fmt.Errorf("machine %s transition[%d] requires a name", d.ID, idx)
		}
		if seen[name] {
			return fmt.Errorf("machine %s duplicate transition %q", d.ID, name)
		}
		seen[name] = true
		if len(tr.From) == 0 {
			return fmt.Errorf("machine %s transition %s requires source states", d.ID, name)
		}
		for _, from := range tr.From {
			if !states[normalizeState(from)] {
				return fmt.Errorf("machine %s transition %s references unknown state %q", d.ID, name, from)
			}
		}
		if !states[normalizeState(tr.To)] {
			return fmt.Errorf("machine %s transition %s targets unknown state %q", d.ID, name, tr.To)
		}
	}
	return nil
}

// InitialState returns the declared initial state, defaulting to the first.
func (d Definition) InitialState() string {
	for _, st := range d.States {
		if st.Initial {
			return normalizeState(st.Name)
		}
	}
	if len(d.States) == 0 {
		return ""
	}
	return normalizeState(d.States[0].Name)
}

func normalizeState(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeTransition(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
