package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventCancellableAt(t *testing.T) {
	deadline := time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)
	e := &Event{CancelDeadline: &deadline}

	assert.True(t, e.CancellableAt(deadline.Add(-time.Second)))
	assert.False(t, e.CancellableAt(deadline))
	assert.False(t, e.CancellableAt(deadline.Add(time.Second)))

	open := &Event{}
	assert.True(t, open.CancellableAt(deadline.Add(365*24*time.Hour)))
}
