package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateStaged, true},
		{StateIdle, StateUploaded, false},
		{StateIdle, StateProcessing, false},
		{StateStaged, StateStaged, true},
		{StateStaged, StateUploaded, true},
		{StateStaged, StateIdle, true},
		{StateStaged, StateProcessing, false},
		{StateUploaded, StateProcessing, true},
		{StateUploaded, StateStaged, true},
		{StateUploaded, StateSucceeded, false},
		{StateProcessing, StateSucceeded, true},
		{StateProcessing, StateFailed, true},
		{StateProcessing, StateProcessing, false},
		{StateProcessing, StateStaged, false},
		{StateSucceeded, StateProcessing, true},
		{StateSucceeded, StateStaged, true},
		{StateFailed, StateProcessing, true},
		{StateFailed, StateIdle, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, canTransition(tt.from, tt.to))
		})
	}
}

func TestTransition_Error(t *testing.T) {
	err := transition(StateIdle, StateProcessing)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "idle -> processing")

	assert.NoError(t, transition(StateUploaded, StateProcessing))
}

func TestStagedFile_Info(t *testing.T) {
	assert.Equal(t, "a.mp4 — 0.0 MB", StagedFile{Name: "a.mp4", Size: 10}.Info())
	assert.Equal(t, "b.mov — 1.5 MB", StagedFile{Name: "b.mov", Size: 1_500_000}.Info())
}
