package core

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain checks that walk, parse and search workers all exit before a test returns.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
