// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protocol

import (
	"fmt"
)

type State struct {
	Id   uint
	Name string
}

func NewState(id uint, name string) State {
	return State{
		Id:   id,
		Name: name,
	}
}

func (s State) String() string {
	return s.Name
}

// Event identifies something that happened to a protocol state machine
type Event uint8

type StateTransition struct {
	Event    Event
	NewState State
}

type StateMapEntry struct {
	// Terminal states accept no further events
	Terminal    bool
	Transitions []StateTransition
}

type StateMap map[State]StateMapEntry

// Transition returns the state reached from current on event. An error
// wrapping ErrInvalidTransition is returned if the state map has no such edge
func (s StateMap) Transition(current State, event Event) (State, error) {
	entry, ok := s[current]
	if !ok {
		return current, fmt.Errorf(
			"%w: unknown state %s",
			ErrInvalidTransition,
			current,
		)
	}
	if entry.Terminal {
		return current, fmt.Errorf(
			"%w: state %s is terminal",
			ErrInvalidTransition,
			current,
		)
	}
	for _, t := range entry.Transitions {
		if t.Event == event {
			return t.NewState, nil
		}
	}
	return current, fmt.Errorf(
		"%w: no transition from %s on event %d",
		ErrInvalidTransition,
		current,
		event,
	)
}

// IsTerminal returns true if the given state accepts no further events
func (s StateMap) IsTerminal(state State) bool {
	return s[state].Terminal
}
