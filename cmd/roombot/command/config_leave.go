package command

import (
	"fmt"
	"sort"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-roombot/internal/room"
)

var leaveReasons = map[room.LeaveReason]bool{
	room.LeaveDisconnect: true,
	room.LeaveLeave:      true,
	room.LeaveKick:       true,
	room.LeaveBan:        true,
}

// LeaveReasonsConfig maps chat Action contents to the leave reason they
// announce. Empty keeps the built-in vocabulary.
type LeaveReasonsConfig map[string]room.LeaveReason

func (c LeaveReasonsConfig) validate() error {
	el := errors.NewErrorList()

	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if k == "" {
			el.Add(fmt.Errorf("leave_reasons: action content must not be empty"))
		}
		if !leaveReasons[c[k]] {
			el.Add(fmt.Errorf("leave_reasons: %s: unknown reason %q", k, c[k]))
		}
	}

	return el.Err()
}

func (c LeaveReasonsConfig) vocabulary() map[string]room.LeaveReason {
	return map[string]room.LeaveReason(c)
}
