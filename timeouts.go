package pldm

import "time"

// Timeouts configures the UA-side waits named in §6 ("Timeouts"). A
// control command (inventory, RequestUpdate, PassComponentTable,
// UpdateComponent, ...) times out quickly; download pacing
// (RequestFirmwareData round-trips) is allowed much longer since it is
// bounded by flash write speed, not network latency.
type Timeouts struct {
	Idle     time.Duration
	Download time.Duration
}

// DefaultTimeouts mirrors kryptco-kr/timeouts.go's DefaultTimeouts shape,
// populated with the per-command defaults from §6: 5s for control
// commands, 90s for download pacing.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Idle:     5 * time.Second,
		Download: 90 * time.Second,
	}
}
