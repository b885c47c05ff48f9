package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestShouldRetry(t *testing.T) {
	dial := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"dial", dial, true},
		{"wrapped dial", fmt.Errorf("send: %w", &url.Error{Op: "Post", URL: "https://api", Err: dial}), true},
		{"deadline", &url.Error{Op: "Post", URL: "https://api", Err: context.DeadlineExceeded}, true},
		{"flood", tele.FloodError{RetryAfter: 3}, true},
		{"server", &tele.Error{Code: 502, Description: "Bad Gateway"}, true},
		{"client", &tele.Error{Code: 400, Description: "Bad Request"}, false},
	}
	for _, tc := range cases {
		if got := ShouldRetry(tc.err); got != tc.want {
			t.Errorf("%s: ShouldRetry = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRetryAfter(t *testing.T) {
	if got := RetryAfter(tele.FloodError{RetryAfter: 2}); got != 2*time.Second {
		t.Fatalf("RetryAfter = %v", got)
	}
	if got := RetryAfter(errors.New("x")); got != 0 {
		t.Fatalf("RetryAfter plain = %v", got)
	}
}
