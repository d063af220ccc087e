package jump

import (
	"testing"

	"jumpbot/pkg/geometry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestReviewLastJump(t *testing.T) {
	const D = 300.0
	origin := geometry.Found(600, 810)

	tests := []struct {
		name     string
		piece    geometry.Point
		right    bool
		onCenter bool
		want     Calibration
	}{
		{
			name:     "exact hit",
			piece:    geometry.Pt(600, 810),
			right:    true,
			onCenter: true,
			want: Calibration{ActualDistance: D, Duration: 420, OnCenter: true,
				PlannedDistance: D, Offset: 0, Landing: LandedExact},
		},
		{
			name:  "undershoot",
			piece: geometry.Pt(600, 830),
			right: true,
			want: Calibration{ActualDistance: D - 20, Duration: 420,
				PlannedDistance: D, Offset: 20, Landing: LandedShort},
		},
		{
			name:  "overshoot",
			piece: geometry.Pt(600, 790),
			right: true,
			want: Calibration{ActualDistance: D + 20, Duration: 420,
				PlannedDistance: D, Offset: 20, Landing: LandedLong},
		},
		{
			name:  "overshoot left",
			piece: geometry.Pt(600, 775),
			right: false,
			want: Calibration{ActualDistance: D + 35, Duration: 420,
				PlannedDistance: D, Offset: 35, Landing: LandedLong},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := PreviousTurn{Distance: D, Duration: 420, JumpRight: tt.right, Valid: true}
			r := ReviewLastJump(prev, origin, tt.piece, tt.onCenter)

			assert.Equal(t, ReviewRecorded, r.Outcome)
			assert.True(t, r.Recorded())
			if diff := cmp.Diff(tt.want, r.Calibration); diff != "" {
				t.Errorf("calibration mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReviewLastJumpSkipped(t *testing.T) {
	valid := PreviousTurn{Distance: 300, Duration: 420, JumpRight: true, Valid: true}

	r := ReviewLastJump(PreviousTurn{}, geometry.Found(600, 810), geometry.Pt(600, 810), false)
	assert.Equal(t, ReviewSkipped, r.Outcome)
	assert.Zero(t, r.Calibration)

	r = ReviewLastJump(valid, geometry.NotFound, geometry.Pt(600, 810), false)
	assert.Equal(t, ReviewSkipped, r.Outcome)
	assert.False(t, r.Recorded())

	noDuration := valid
	noDuration.Duration = 0
	r = ReviewLastJump(noDuration, geometry.Found(600, 810), geometry.Pt(600, 810), false)
	assert.Equal(t, ReviewSkipped, r.Outcome)
}

func TestReviewLastJumpOvershootOntoThirdTile(t *testing.T) {
	prev := PreviousTurn{Distance: 30, Duration: 150, JumpRight: true, Valid: true}

	r := ReviewLastJump(prev, geometry.Found(600, 810), geometry.Pt(600, 760), false)
	assert.Equal(t, ReviewUnhandled, r.Outcome)
	assert.False(t, r.Recorded())
	assert.NotEmpty(t, r.Reason)

	r = ReviewLastJump(prev, geometry.Found(600, 810), geometry.Pt(600, 860), false)
	assert.Equal(t, ReviewUnhandled, r.Outcome, "undershoot past the start tile")
}

func TestCalibrationLine(t *testing.T) {
	c := Calibration{ActualDistance: 211.5, Duration: 318, OnCenter: true}
	assert.Equal(t, "211.5 318 true", c.Line())
}
