package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusHumanize(t *testing.T) {
	assert.Equal(t, "Submitted", StatusSubmitted.Humanize())
	assert.Equal(t, "Under Review", StatusUnderReview.Humanize())
	assert.Equal(t, "More Info Needed", StatusMoreInfoNeeded.Humanize())
	assert.Equal(t, "Submitted", Status("").Humanize())
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range statuses {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, Status("pending").IsValid())
}

func TestSubmissionAccessorsOnNil(t *testing.T) {
	var s *Submission
	assert.Empty(t, s.Value(FieldEmail))
	assert.False(t, s.Has(FieldEmail))
	assert.Nil(t, s.Upload(SlotFront))
}

func TestSubmissionUploadBySlot(t *testing.T) {
	front := &Upload{Filename: "front.png"}
	back := &Upload{Filename: "back.png"}
	s := &Submission{Front: front, Back: back}

	assert.Same(t, front, s.Upload(SlotFront))
	assert.Same(t, back, s.Upload(SlotBack))
}
