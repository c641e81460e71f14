/*
transitions.go - Status transition table

PURPOSE:
  Declares which employment status transitions HR may perform. The table is
  advisory by default (clients use it to grey out options); when Enforce is
  set, an off-table transition is rejected with a ConflictError before any
  store or ledger call.

CONFIG FORMAT (YAML):
  transitions:
    ACTIVE: [ON_LEAVE, SUSPENDED, TERMINATED]
    ON_LEAVE: [ACTIVE, TERMINATED]
    SUSPENDED: [ACTIVE, TERMINATED]
    TERMINATED: []
*/
package hr

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TransitionTable holds the allowed status transitions.
type TransitionTable struct {
	Enforce bool
	allowed map[ParticipantStatus]map[ParticipantStatus]bool
}

// DefaultTransitions returns the built-in table: TERMINATED is absorbing,
// everything else can move freely between the non-terminal statuses.
func DefaultTransitions(enforce bool) *TransitionTable {
	return newTable(enforce, map[ParticipantStatus][]ParticipantStatus{
		StatusActive:     {StatusOnLeave, StatusSuspended, StatusTerminated},
		StatusOnLeave:    {StatusActive, StatusSuspended, StatusTerminated},
		StatusSuspended:  {StatusActive, StatusTerminated},
		StatusTerminated: {},
	})
}

// LoadTransitions reads a transition table from a YAML file.
func LoadTransitions(path string, enforce bool) (*TransitionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transitions file: %w", err)
	}

	var doc struct {
		Transitions map[string][]string `yaml:"transitions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse transitions file: %w", err)
	}

	parsed := make(map[ParticipantStatus][]ParticipantStatus, len(doc.Transitions))
	for from, tos := range doc.Transitions {
		f, err := ParseParticipantStatus(from)
		if err != nil {
			return nil, err
		}
		targets := make([]ParticipantStatus, 0, len(tos))
		for _, to := range tos {
			t, err := ParseParticipantStatus(to)
			if err != nil {
				return nil, err
			}
			targets = append(targets, t)
		}
		parsed[f] = targets
	}
	return newTable(enforce, parsed), nil
}

func newTable(enforce bool, allowed map[ParticipantStatus][]ParticipantStatus) *TransitionTable {
	t := &TransitionTable{Enforce: enforce, allowed: make(map[ParticipantStatus]map[ParticipantStatus]bool)}
	for from, tos := range allowed {
		set := make(map[ParticipantStatus]bool, len(tos))
		for _, to := range tos {
			set[to] = true
		}
		t.allowed[from] = set
	}
	return t
}

// Allowed reports whether from -> to is on the table. Statuses absent from
// the table have no outgoing transitions.
func (t *TransitionTable) Allowed(from, to ParticipantStatus) bool {
	return t.allowed[from][to]
}

// ValidTargets returns the transitions available from the given status.
func (t *TransitionTable) ValidTargets(from ParticipantStatus) []ParticipantStatus {
	var out []ParticipantStatus
	for _, to := range []ParticipantStatus{StatusActive, StatusOnLeave, StatusSuspended, StatusTerminated} {
		if t.allowed[from][to] {
			out = append(out, to)
		}
	}
	return out
}
