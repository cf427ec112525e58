package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionRecord(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{RecordStatusPending, RecordStatusApproved, true},
		{RecordStatusPending, RecordStatusDisputed, true},
		{RecordStatusPending, RecordStatusCancelled, true},
		{RecordStatusPending, RecordStatusPaid, false},
		{RecordStatusApproved, RecordStatusPaid, true},
		{RecordStatusApproved, RecordStatusDisputed, true},
		{RecordStatusDisputed, RecordStatusResolvedPaid, true},
		{RecordStatusDisputed, RecordStatusResolvedRejected, true},
		{RecordStatusDisputed, RecordStatusApproved, false},
		{RecordStatusPaid, RecordStatusApproved, false},
		{RecordStatusPaid, RecordStatusDisputed, false},
		{RecordStatusCancelled, RecordStatusApproved, false},
		{RecordStatusResolvedRejected, RecordStatusCancelled, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransitionRecord(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestRecordStatusesAllowing(t *testing.T) {
	assert.Equal(t, []string{RecordStatusPending}, RecordStatusesAllowing(RecordStatusApproved))
	assert.Equal(t, []string{RecordStatusApproved}, RecordStatusesAllowing(RecordStatusPaid))
	assert.Equal(t,
		[]string{RecordStatusPending, RecordStatusApproved},
		RecordStatusesAllowing(RecordStatusDisputed))
	assert.Equal(t,
		[]string{RecordStatusPending, RecordStatusApproved, RecordStatusDisputed},
		RecordStatusesAllowing(RecordStatusCancelled))
	assert.Equal(t, []string{RecordStatusDisputed}, RecordStatusesAllowing(RecordStatusResolvedPaid))
	assert.Empty(t, RecordStatusesAllowing(RecordStatusPending))
}

func TestIsTerminalRecordStatus(t *testing.T) {
	for _, status := range []string{
		RecordStatusPaid, RecordStatusResolvedPaid,
		RecordStatusResolvedRejected, RecordStatusCancelled,
	} {
		assert.True(t, IsTerminalRecordStatus(status), status)
	}
	for _, status := range []string{
		RecordStatusPending, RecordStatusApproved, RecordStatusDisputed,
	} {
		assert.False(t, IsTerminalRecordStatus(status), status)
	}
}
