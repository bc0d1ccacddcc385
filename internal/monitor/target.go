package monitor

import (
	"strconv"
	"strings"

	"github.com/sarv/procscope/internal/errors"
)

// MatchKind 目标匹配方式
type MatchKind string

const (
	MatchName     MatchKind = "name"     // 进程名精确匹配
	MatchContains MatchKind = "contains" // 进程名包含匹配
	MatchPID      MatchKind = "pid"      // 按 PID 匹配
)

// Target is a user-declared intent to monitor a process, optionally
// including its descendants.
type Target struct {
	Kind            MatchKind `json:"kind"`
	Name            string    `json:"name,omitempty"`
	PID             int32     `json:"pid,omitempty"`
	IncludeChildren bool      `json:"include_children"`
}

// ParseTarget parses the string form of a target:
//
//	"pid:1234"        matches the process with PID 1234
//	"contains:chrome" matches any process whose name contains "chrome"
//	"chrome"          matches processes named exactly "chrome"
//
// A "tree:" prefix on any of the above also includes the target's
// descendants, e.g. "tree:pid:1234".
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Target{}, errors.RequiredParam("target")
	}

	if rest, ok := strings.CutPrefix(s, "tree:"); ok {
		target, err := ParseTarget(rest)
		if err != nil {
			return Target{}, err
		}
		target.IncludeChildren = true
		return target, nil
	}

	if rest, ok := strings.CutPrefix(s, "pid:"); ok {
		pid, err := strconv.ParseInt(rest, 10, 32)
		if err != nil || pid <= 0 {
			return Target{}, errors.InvalidParam("target", "pid must be a positive integer")
		}
		return Target{Kind: MatchPID, PID: int32(pid)}, nil
	}

	if rest, ok := strings.CutPrefix(s, "contains:"); ok {
		if rest == "" {
			return Target{}, errors.InvalidParam("target", "empty contains pattern")
		}
		return Target{Kind: MatchContains, Name: rest}, nil
	}

	return Target{Kind: MatchName, Name: s}, nil
}

// String returns the parseable form of the target.
func (t Target) String() string {
	if t.IncludeChildren {
		return "tree:" + t.Key()
	}
	return t.Key()
}

// Key identifies a target within the watched set. Two targets with the
// same matcher are the same target regardless of the children flag.
func (t Target) Key() string {
	switch t.Kind {
	case MatchPID:
		return "pid:" + strconv.FormatInt(int64(t.PID), 10)
	case MatchContains:
		return "contains:" + t.Name
	default:
		return t.Name
	}
}

// Matches reports whether a process with the given name and pid is a
// direct match for this target. Descendant matching is the tracker's job.
func (t Target) Matches(name string, pid int32) bool {
	switch t.Kind {
	case MatchPID:
		return t.PID == pid
	case MatchContains:
		return strings.Contains(name, t.Name)
	default:
		return t.Name == name
	}
}

func (t Target) Validate() error {
	switch t.Kind {
	case MatchPID:
		if t.PID <= 0 {
			return errors.InvalidParam("target", "pid must be a positive integer")
		}
	case MatchName, MatchContains:
		if t.Name == "" {
			return errors.InvalidParam("target", "empty name pattern")
		}
	default:
		return errors.InvalidParam("target", "unknown match kind: "+string(t.Kind))
	}
	return nil
}
