package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaturityFor(t *testing.T) {
	tests := []struct {
		name          string
		scheduledDays float64
		reps          int
		want          MaturityState
	}{
		{name: "never reviewed", scheduledDays: 0, reps: 0, want: MaturityNew},
		{name: "reviewed but unscheduled", scheduledDays: 0, reps: 3, want: MaturityNew},
		{name: "short interval", scheduledDays: 5, reps: 2, want: MaturityYoung},
		{name: "just below mature threshold", scheduledDays: 20.9, reps: 8, want: MaturityYoung},
		{name: "exactly at mature threshold", scheduledDays: 21, reps: 8, want: MaturityMature},
		{name: "long interval", scheduledDays: 180, reps: 20, want: MaturityMature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaturityFor(tt.scheduledDays, tt.reps))
		})
	}
}

func TestCard_ShouldAutoSuspend(t *testing.T) {
	tests := []struct {
		name   string
		status ActivationStatus
		lapses int
		want   bool
	}{
		{name: "active below threshold", status: StatusActive, lapses: 5, want: false},
		{name: "active at threshold", status: StatusActive, lapses: 6, want: true},
		{name: "active above threshold", status: StatusActive, lapses: 9, want: true},
		{name: "dormant at threshold", status: StatusDormant, lapses: 6, want: false},
		{name: "already suspended", status: StatusSuspended, lapses: 6, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Card{Status: tt.status, Lapses: tt.lapses}
			assert.Equal(t, tt.want, c.ShouldAutoSuspend())
		})
	}
}

func TestCard_AtRiskForDisplay(t *testing.T) {
	tests := []struct {
		name string
		c    Card
		want bool
	}{
		{name: "fresh card", c: Card{}, want: false},
		{name: "five lapses alone", c: Card{Lapses: 5}, want: true},
		{name: "three lapses with high difficulty", c: Card{Lapses: 3, Difficulty: 7.5}, want: true},
		{name: "three lapses with moderate difficulty", c: Card{Lapses: 3, Difficulty: 5.0}, want: false},
		{name: "many reps with fragile stability", c: Card{Reps: 5, Stability: 3.2}, want: true},
		{name: "many reps with solid stability", c: Card{Reps: 5, Stability: 30}, want: false},
		{name: "many reps never reviewed", c: Card{Reps: 5, Stability: 0}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.AtRiskForDisplay())
		})
	}
}

func TestReasons_ValueAndScan(t *testing.T) {
	v, err := Reasons{"golden ticket", "forgotten in topic entry quiz"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["golden ticket","forgotten in topic entry quiz"]`, v)

	v, err = Reasons(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var scanned Reasons
	require.NoError(t, scanned.Scan(`["leech"]`))
	assert.Equal(t, Reasons{"leech"}, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)

	assert.Error(t, scanned.Scan(42))
}
