package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sarv/procscope/internal/monitor"
)

type stubReader struct {
	mu    sync.Mutex
	table *monitor.Table
	err   error
}

func (r *stubReader) set(table *monitor.Table, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table = table
	r.err = err
}

func (r *stubReader) ReadTable(ctx context.Context) (*monitor.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.table, nil
}

type stubConf struct{}

func (stubConf) GetHTTPAddr() string { return "127.0.0.1:0" }

func newTestService(t *testing.T) (*Service, *stubReader) {
	t.Helper()
	reader := &stubReader{}
	reader.set(&monitor.Table{Rows: map[int32]monitor.Row{
		1:  {PID: 1, Name: "init", StartTime: time.Now()},
		10: {PID: 10, PPID: 1, Name: "worker", StartTime: time.Now()},
	}, ReadAt: time.Now()}, nil)

	sampler := monitor.NewSampler(reader, monitor.Options{})
	return NewService(stubConf{}, sampler), reader
}

func do(t *testing.T, s *Service, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestService(t)
	w := do(t, s, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestSnapshotBeforeFirstCycle(t *testing.T) {
	s, _ := newTestService(t)
	w := do(t, s, "GET", "/api/v1/snapshot", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var snap struct {
		Processes []any `json:"processes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Processes) != 0 {
		t.Errorf("processes = %v, want empty", snap.Processes)
	}
}

func TestStatus(t *testing.T) {
	s, _ := newTestService(t)
	w := do(t, s, "GET", "/api/v1/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var status struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.State != "idle" {
		t.Errorf("state = %q, want idle", status.State)
	}
}

func TestListProcesses(t *testing.T) {
	s, _ := newTestService(t)
	w := do(t, s, "GET", "/api/v1/processes", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Items []struct {
			PID  int32  `json:"pid"`
			Name string `json:"name"`
		} `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(resp.Items))
	}
}

func TestTargetLifecycle(t *testing.T) {
	s, _ := newTestService(t)

	// 添加
	w := do(t, s, "POST", "/api/v1/targets", `{"target":"pid:10","include_children":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Items []struct {
			Kind            string `json:"kind"`
			PID             int32  `json:"pid"`
			IncludeChildren bool   `json:"include_children"`
		} `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 1 || resp.Items[0].PID != 10 || !resp.Items[0].IncludeChildren {
		t.Fatalf("targets after add = %+v", resp.Items)
	}

	// 删除
	w = do(t, s, "DELETE", "/api/v1/targets/pid:10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body = %s", w.Code, w.Body.String())
	}

	// 再次删除应报 404
	w = do(t, s, "DELETE", "/api/v1/targets/pid:10", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestAddTargetValidation(t *testing.T) {
	s, _ := newTestService(t)

	tests := []struct {
		body string
	}{
		{`{}`},
		{`{"target":""}`},
		{`{"target":"pid:abc"}`},
		{`{"target":"pid:0"}`},
		{`{"target":"contains:"}`},
	}
	for _, tt := range tests {
		w := do(t, s, "POST", "/api/v1/targets", tt.body)
		if w.Code == http.StatusOK {
			t.Errorf("POST %s should fail", tt.body)
		}
	}
}

func TestSettingsUpdateAndValidation(t *testing.T) {
	s, _ := newTestService(t)

	w := do(t, s, "PUT", "/api/v1/settings", `{"interval":"200ms","capacity":30,"retention":"5s"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var status struct {
		Interval  int64 `json:"interval"`
		Capacity  int   `json:"capacity"`
		Retention int64 `json:"retention"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if time.Duration(status.Interval) != 200*time.Millisecond {
		t.Errorf("interval = %d", status.Interval)
	}
	if status.Capacity != 30 {
		t.Errorf("capacity = %d, want 30", status.Capacity)
	}
	if time.Duration(status.Retention) != 5*time.Second {
		t.Errorf("retention = %d", status.Retention)
	}

	// 非法值被拒绝，原值保持生效
	for _, body := range []string{
		`{"interval":"50ms"}`,
		`{"interval":"nonsense"}`,
		`{"capacity":0}`,
		`{"retention":"-1s"}`,
	} {
		w := do(t, s, "PUT", "/api/v1/settings", body)
		if w.Code == http.StatusOK {
			t.Errorf("PUT %s should fail", body)
		}
	}

	w = do(t, s, "GET", "/api/v1/status", "")
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if time.Duration(status.Interval) != 200*time.Millisecond || status.Capacity != 30 {
		t.Errorf("rejected settings mutated state: %+v", status)
	}
}
