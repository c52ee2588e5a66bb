package pldm

import (
	"github.com/fatih/color"
)

// Terminal color helpers for cmd/pldm-ua's status output, the same small
// set of named wrappers kryptco-kr keeps in kryptco-kr/color.go.

func Cyan(s string) string {
	c := color.New(color.FgHiCyan)
	c.EnableColor()
	return c.SprintFunc()(s)
}

func Green(s string) string {
	c := color.New(color.FgHiGreen)
	c.EnableColor()
	return c.SprintFunc()(s)
}

func Yellow(s string) string {
	c := color.New(color.FgHiYellow)
	c.EnableColor()
	return c.SprintFunc()(s)
}

func Red(s string) string {
	c := color.New(color.FgHiRed)
	c.EnableColor()
	return c.SprintFunc()(s)
}

// PhaseColor renders a state name in the color an operator watching an
// update roll out would expect: red for trouble, yellow for in-progress,
// green for settled.
func PhaseColor(state string) func(string) string {
	switch state {
	case "IDLE", "ACTIVATE":
		return Green
	case "LEARN_COMPONENTS", "READY_XFER", "DOWNLOAD", "VERIFY", "APPLY":
		return Yellow
	default:
		return Red
	}
}
