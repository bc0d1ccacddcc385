package errors

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestErrorCreation(t *testing.T) {
	err := New("test", "test message", nil, http.StatusBadRequest)
	if err.Type != "test" || err.Message != "test message" || err.Code != http.StatusBadRequest {
		t.Errorf("New() created incorrect error: %v", err)
	}

	cause := fmt.Errorf("original error")
	err = New("test", "test with cause", cause, http.StatusInternalServerError)
	if err.Cause != cause {
		t.Errorf("New() did not set cause correctly: %v", err)
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() did not return the cause")
	}

	expected := "test: test with cause: original error"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestWithStack(t *testing.T) {
	err := Internal("boom", nil)
	if len(err.Stack) == 0 {
		t.Fatal("WithStack() recorded no frames")
	}
	for _, frame := range err.Stack {
		if strings.Contains(frame, "runtime/") {
			t.Errorf("stack contains runtime frame: %s", frame)
		}
	}
}

func TestDomainErrorHelpers(t *testing.T) {
	tableErr := ProcessTableReadFailed(fmt.Errorf("permission denied"))
	if tableErr.Type != ErrTypeMonitor {
		t.Errorf("ProcessTableReadFailed() created error with wrong type: %s", tableErr.Type)
	}

	procErr := ProcessReadFailed(1234, fmt.Errorf("gone"))
	if procErr.Type != ErrTypeMonitor {
		t.Errorf("ProcessReadFailed() created error with wrong type: %s", procErr.Type)
	}

	intervalErr := InvalidInterval(50 * time.Millisecond)
	if intervalErr.Type != ErrTypeConfig || intervalErr.Code != http.StatusBadRequest {
		t.Errorf("InvalidInterval() created error with wrong type or code: %s, %d",
			intervalErr.Type, intervalErr.Code)
	}

	capErr := InvalidCapacity(0)
	if capErr.Type != ErrTypeConfig {
		t.Errorf("InvalidCapacity() created error with wrong type: %s", capErr.Type)
	}

	notFound := TargetNotFound("chrome")
	if notFound.Type != ErrTypeNotFound || notFound.Code != http.StatusNotFound {
		t.Errorf("TargetNotFound() created error with wrong type or code: %s, %d",
			notFound.Type, notFound.Code)
	}

	running := SamplerAlreadyRunning()
	if running.Code != http.StatusConflict {
		t.Errorf("SamplerAlreadyRunning() code = %d, want 409", running.Code)
	}
}

func TestErrWritesStatusCode(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err  error
		code int
	}{
		{TargetNotFound("x"), http.StatusNotFound},
		{InvalidCapacity(-1), http.StatusBadRequest},
		{fmt.Errorf("plain error"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Err(c, tt.err)
		if w.Code != tt.code {
			t.Errorf("Err(%v) wrote status %d, want %d", tt.err, w.Code, tt.code)
		}
	}
}
