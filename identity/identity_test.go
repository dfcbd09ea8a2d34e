package identity_test

import (
	"context"
	"testing"

	"github.com/xraph/carbonlock/identity"
)

func TestCaller(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		want   identity.Principal
		wantOK bool
	}{
		{"None", context.Background(), "", false},
		{"Empty", identity.WithCaller(context.Background(), ""), "", false},
		{"Set", identity.WithCaller(context.Background(), "alice"), "alice", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := identity.Caller(tt.ctx)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Caller: got (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCallerOrAnonymous(t *testing.T) {
	if got := identity.CallerOrAnonymous(context.Background()); got != identity.Anonymous {
		t.Errorf("got %q, want anonymous", got)
	}
	ctx := identity.WithCaller(context.Background(), "bob")
	if got := identity.CallerOrAnonymous(ctx); got != "bob" {
		t.Errorf("got %q, want bob", got)
	}
}
