package monitor

import "testing"

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in   string
		want Target
	}{
		{"chrome", Target{Kind: MatchName, Name: "chrome"}},
		{"pid:1234", Target{Kind: MatchPID, PID: 1234}},
		{"contains:fire", Target{Kind: MatchContains, Name: "fire"}},
		{"  nginx  ", Target{Kind: MatchName, Name: "nginx"}},
		{"tree:chrome", Target{Kind: MatchName, Name: "chrome", IncludeChildren: true}},
		{"tree:pid:1234", Target{Kind: MatchPID, PID: 1234, IncludeChildren: true}},
	}

	for _, tt := range tests {
		got, err := ParseTarget(tt.in)
		if err != nil {
			t.Errorf("ParseTarget(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTarget(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseTargetInvalid(t *testing.T) {
	for _, in := range []string{"", "  ", "pid:", "pid:abc", "pid:-5", "pid:0", "contains:", "tree:pid:abc"} {
		if _, err := ParseTarget(in); err == nil {
			t.Errorf("ParseTarget(%q) should fail", in)
		}
	}
}

func TestTargetString(t *testing.T) {
	for _, in := range []string{"chrome", "pid:42", "contains:post", "tree:pid:42"} {
		target, err := ParseTarget(in)
		if err != nil {
			t.Fatalf("ParseTarget(%q) error: %v", in, err)
		}
		if got := target.String(); got != in {
			t.Errorf("String() = %q, want %q", got, in)
		}
	}
}

func TestTargetMatches(t *testing.T) {
	tests := []struct {
		target Target
		name   string
		pid    int32
		want   bool
	}{
		{Target{Kind: MatchName, Name: "chrome"}, "chrome", 1, true},
		{Target{Kind: MatchName, Name: "chrome"}, "chromium", 1, false},
		{Target{Kind: MatchContains, Name: "chrom"}, "chromium", 1, true},
		{Target{Kind: MatchContains, Name: "chrom"}, "firefox", 1, false},
		{Target{Kind: MatchPID, PID: 42}, "anything", 42, true},
		{Target{Kind: MatchPID, PID: 42}, "anything", 43, false},
	}

	for _, tt := range tests {
		if got := tt.target.Matches(tt.name, tt.pid); got != tt.want {
			t.Errorf("%v.Matches(%q, %d) = %v, want %v", tt.target, tt.name, tt.pid, got, tt.want)
		}
	}
}
