package feed

import "fmt"

// Trigger names the stimulus behind a load.
type Trigger string

const (
	TriggerMount    Trigger = "mount"
	TriggerTimer    Trigger = "timer"
	TriggerCatalog  Trigger = "catalog"
	TriggerScroll   Trigger = "scroll"
	TriggerNext     Trigger = "next"
	TriggerPrevious Trigger = "previous"
	TriggerPage     Trigger = "page"
	TriggerFilter   Trigger = "filter"
	TriggerManual   Trigger = "manual"
	TriggerRetry    Trigger = "retry"
)

// ParseTrigger accepts the triggers a browser may fire directly.
func ParseTrigger(s string) (Trigger, error) {
	switch t := Trigger(s); t {
	case TriggerScroll, TriggerNext, TriggerPrevious, TriggerManual, TriggerRetry:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTrigger, s)
	}
}

// Mode selects how a loaded page is merged into the list.
type Mode int

const (
	Replace Mode = iota
	Append
)

func (m Mode) String() string {
	if m == Append {
		return "append"
	}
	return "replace"
}
