// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package federation

import "fmt"

// FanOutPolicy decides how Login and CommitPendingChanges treat a failing
// connector.
type FanOutPolicy int

const (
	// CollectAll attempts every connector and reports all failures in a
	// FanOutError.
	CollectAll FanOutPolicy = iota
	// FailFast stops at the first failing connector and returns its error
	// unchanged. Later connectors are not attempted.
	FailFast
)

func (p FanOutPolicy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case CollectAll:
		return "collect-all"
	default:
		return fmt.Sprintf("FanOutPolicy(%d)", int(p))
	}
}

// ParseFanOutPolicy parses "collect-all" or "fail-fast". The empty string
// selects CollectAll.
func ParseFanOutPolicy(s string) (FanOutPolicy, error) {
	switch s {
	case "", "collect-all":
		return CollectAll, nil
	case "fail-fast":
		return FailFast, nil
	default:
		return CollectAll, fmt.Errorf("unknown fan-out policy %q", s)
	}
}
