package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	saved []Notification
	err   error
}

func (s *memorySink) Save(_ context.Context, n Notification) error {
	s.saved = append(s.saved, n)
	return s.err
}

func TestCenter_NotifyKeepsHistory(t *testing.T) {
	c := NewCenter(nil)

	first := c.Success("Task moved successfully")
	second := c.Error("Failed to move task")

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	recent := c.Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, LevelSuccess, recent[0].Level)
	assert.Equal(t, "Failed to move task", recent[1].Message)

	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, second.ID, last.ID)
	assert.Equal(t, 1, c.Count(LevelError))
}

func TestCenter_HistoryIsBounded(t *testing.T) {
	c := NewCenter(nil)
	for i := 0; i < defaultHistory+10; i++ {
		c.Notify(LevelInfo, fmt.Sprintf("n%d", i))
	}

	recent := c.Recent(0)
	assert.Len(t, recent, defaultHistory)
	assert.Equal(t, fmt.Sprintf("n%d", defaultHistory+9), recent[len(recent)-1].Message)
	assert.Len(t, c.Recent(3), 3)
}

func TestCenter_SinkErrorsDoNotPropagate(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}
	c := NewCenter(nil, sink)

	n := c.Error("Could not reach the server")
	require.Len(t, sink.saved, 1)
	assert.Equal(t, n.ID, sink.saved[0].ID)
	assert.Len(t, c.Recent(0), 1)
}

func TestCenter_LastOnEmpty(t *testing.T) {
	_, ok := NewCenter(nil).Last()
	assert.False(t, ok)
}
