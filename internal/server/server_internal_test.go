package server

import (
	"testing"
	"time"
)

func TestRequestTimeout(t *testing.T) {
	tests := []struct {
		writeTimeout time.Duration
		want         time.Duration
	}{
		{0, 0},
		{5 * time.Minute, 5*time.Minute - requestTimeoutMargin},
		{20 * time.Second, 10 * time.Second},
		{4 * time.Second, 2 * time.Second},
	}

	for _, tt := range tests {
		if got := requestTimeout(tt.writeTimeout); got != tt.want {
			t.Fatalf("requestTimeout(%s) = %s, want %s", tt.writeTimeout, got, tt.want)
		}
	}
}
