package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusActionMapping(t *testing.T) {
	tests := []struct {
		name  string
		event StatusEvent
		want  StatusAction
	}{
		{"clock on by code", StatusEvent{StatusCode: StatusCodeClockOn}, ActionStartWork},
		{"clock off by code", StatusEvent{StatusCode: StatusCodeClockOff}, ActionEndWork},
		{"break by code", StatusEvent{StatusCode: StatusCodeOnBreak}, ActionEndWork},
		{"resume by code", StatusEvent{StatusCode: StatusCodeResumed}, ActionStartWork},
		{"clock on by name", StatusEvent{StatusName: "Clock On"}, ActionStartWork},
		{"break by name", StatusEvent{StatusName: "On Break"}, ActionEndWork},
		{"name wins over code", StatusEvent{StatusCode: StatusCodeClockOn, StatusName: "Clock Off"}, ActionEndWork},
		{"unknown code", StatusEvent{StatusCode: 99}, ActionUnknown},
		{"unknown name", StatusEvent{StatusName: "Travelling"}, ActionUnknown},
		{"zero value", StatusEvent{}, ActionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Action())
		})
	}
}

func TestIsBreak(t *testing.T) {
	assert.True(t, StatusEvent{StatusCode: StatusCodeOnBreak}.IsBreak())
	assert.True(t, StatusEvent{StatusName: "On Break"}.IsBreak())
	assert.False(t, StatusEvent{StatusCode: StatusCodeClockOff, StatusName: "Clock Off"}.IsBreak())
}

func TestParseJobID(t *testing.T) {
	assert.Equal(t, "42", ParseJobID("42-A"))
	assert.Equal(t, "108", ParseJobID("108-B-2"))
	assert.Equal(t, "7", ParseJobID("7"))
	assert.Equal(t, "", ParseJobID(""))
}
