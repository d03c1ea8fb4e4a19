/*
Package iface holds the readiness data model shared by sys, socket and poll.
*/
package iface

import (
	"fmt"
	"strings"
)

// Token is chosen by the caller at registration time and handed back
// unchanged with every event for that descriptor.
type Token uint64

// EventSet is a bitset of readiness kinds.
type EventSet uint32

const (
	Readable EventSet = 1 << iota
	Writable
	Error
	Hup

	None EventSet = 0
	All           = Readable | Writable | Error | Hup
)

func (that EventSet) IsReadable() bool { return that&Readable != 0 }

func (that EventSet) IsWritable() bool { return that&Writable != 0 }

func (that EventSet) IsError() bool { return that&Error != 0 }

func (that EventSet) IsHup() bool { return that&Hup != 0 }

// Contains reports whether every bit of other is set.
func (that EventSet) Contains(other EventSet) bool {
	return that&other == other
}

func (that EventSet) String() string {
	if that == None {
		return "None"
	}
	var parts []string
	for _, f := range []struct {
		bit  EventSet
		name string
	}{{Readable, "Readable"}, {Writable, "Writable"}, {Error, "Error"}, {Hup, "Hup"}} {
		if that&f.bit != 0 {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "|")
}

// PollOpt is a bitset of trigger modes. Exactly one of Edge and Level is
// active; Level is assumed when neither is given.
type PollOpt uint32

const (
	Edge PollOpt = 1 << iota
	Level
	Oneshot
	Urgent
)

func (that PollOpt) IsEdge() bool { return that&Edge != 0 }

func (that PollOpt) IsLevel() bool { return that&Level != 0 || that&Edge == 0 }

func (that PollOpt) IsOneshot() bool { return that&Oneshot != 0 }

func (that PollOpt) IsUrgent() bool { return that&Urgent != 0 }

// Valid rejects Edge and Level set together.
func (that PollOpt) Valid() bool {
	return that&(Edge|Level) != Edge|Level
}

func (that PollOpt) String() string {
	var parts []string
	if that.IsEdge() {
		parts = append(parts, "Edge")
	} else {
		parts = append(parts, "Level")
	}
	if that.IsOneshot() {
		parts = append(parts, "Oneshot")
	}
	if that.IsUrgent() {
		parts = append(parts, "Urgent")
	}
	return strings.Join(parts, "|")
}

// IoEvent is one readiness notification. It is only meaningful until the
// next poll cycle.
type IoEvent struct {
	Token  Token
	Events EventSet
}

func (that IoEvent) String() string {
	return fmt.Sprintf("IoEvent{token=%d, events=%s}", that.Token, that.Events)
}
