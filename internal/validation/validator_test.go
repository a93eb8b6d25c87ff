package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arcade-profiles/internal/domain"
)

func TestValidateRegisterRequest(t *testing.T) {
	tests := []struct {
		name      string
		request   domain.RegisterRequest
		wantError bool
		errorMsg  string
	}{
		{
			name:    "Valid request",
			request: domain.RegisterRequest{BadgeID: "04:A3:2F:19", Name: "Ann"},
		},
		{
			name:      "Missing badge",
			request:   domain.RegisterRequest{Name: "Ann"},
			wantError: true,
			errorMsg:  "badge_id is required",
		},
		{
			name:      "Badge with spaces",
			request:   domain.RegisterRequest{BadgeID: "B 1", Name: "Ann"},
			wantError: true,
			errorMsg:  "badge_id must contain only letters, numbers, '-', '_' and ':'",
		},
		{
			name:      "Name too long",
			request:   domain.RegisterRequest{BadgeID: "B1", Name: "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz"},
			wantError: true,
			errorMsg:  "name must be at most 50 characters long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.request)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
			assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
		})
	}
}

func TestValidateSessionOutcome(t *testing.T) {
	assert.NoError(t, Validate(domain.SessionOutcome{PlayerID: "B1", GameName: "spaceships"}))

	err := Validate(domain.SessionOutcome{PlayerID: "B1", GameName: "Space Ships"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Contains(t, err.Error(), "game_name")

	err = Validate(domain.SessionOutcome{})
	var verr *Error
	assert.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Messages, 2)
}

func TestValidatePurchaseRequest(t *testing.T) {
	assert.NoError(t, Validate(domain.PurchaseRequest{ItemID: "ninja", Cost: 0}))

	err := Validate(domain.PurchaseRequest{ItemID: "ninja", Cost: -1})
	assert.Contains(t, err.Error(), "cost must be greater than or equal to 0")
}
