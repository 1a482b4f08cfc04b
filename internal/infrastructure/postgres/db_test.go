package postgres

import (
	"context"
	"testing"
)

func TestNewPoolWithConfigDefaults(t *testing.T) {
	ctx := context.Background()

	// using invalid URL should return error
	if _, err := NewPool(ctx, "not-a-url", 1, 0); err == nil {
		t.Fatalf("expected error when parsing invalid URL")
	}
}

func TestNewPoolWithConfigPingFailure(t *testing.T) {
	ctx := context.Background()

	_, err := NewPool(ctx, "postgres://invalid:5432/db", 1, 0)
	if err == nil {
		t.Fatalf("expected error when pool cannot connect")
	}
}
