package logger

import (
	"bytes"
	"context"
	"testing"
)

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) != Default() {
		t.Error("FromContext() without logger should return Default()")
	}

	l := Nop()
	ctx := WithLogger(context.Background(), l)
	if FromContext(ctx) != l {
		t.Error("FromContext() did not return the attached logger")
	}
}

func TestRequestID(t *testing.T) {
	if id := RequestIDFromContext(context.Background()); id != "" {
		t.Errorf("RequestIDFromContext() = %q, want empty", id)
	}

	ctx := WithRequestID(context.Background(), "01HZY")
	if id := RequestIDFromContext(ctx); id != "01HZY" {
		t.Errorf("RequestIDFromContext() = %q, want 01HZY", id)
	}
}

func TestL(t *testing.T) {
	tests := []struct {
		name      string
		requestID string
	}{
		{"with request id", "01HZYREQ"},
		{"without request id", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l, _ := New(Config{Level: "info", Output: &buf})

			ctx := WithLogger(context.Background(), l)
			if tt.requestID != "" {
				ctx = WithRequestID(ctx, tt.requestID)
			}
			L(ctx).Info("handled")

			entry := decode(t, &buf)
			got, present := entry["request_id"]
			if tt.requestID == "" && present {
				t.Errorf("request_id = %v, want absent", got)
			}
			if tt.requestID != "" && got != tt.requestID {
				t.Errorf("request_id = %v, want %s", got, tt.requestID)
			}
		})
	}
}
