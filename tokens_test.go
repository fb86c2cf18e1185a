package twitchauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_TokenRecord_ExpiresWithin(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	in2m := now.Add(2 * time.Minute)
	in10m := now.Add(10 * time.Minute)

	tests := []struct {
		name      string
		expiresAt *time.Time
		margin    time.Duration
		want      bool
	}{
		{"no recorded expiry never triggers proactive refresh", nil, 5 * time.Minute, false},
		{"expiry inside the margin", &in2m, 5 * time.Minute, true},
		{"expiry outside the margin", &in10m, 5 * time.Minute, false},
	}
	for _, tt := range tests {
		record := &TokenRecord{ExpiresAt: tt.expiresAt}
		assert.Equal(t, tt.want, record.ExpiresWithin(tt.margin, now), tt.name)
	}
}

func Test_TokenRecord_Clone(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour)
	record := &TokenRecord{
		UserId:       "8675309",
		Login:        "jenny",
		AccessToken:  "access-01",
		RefreshToken: "refresh-01",
		Scopes:       []string{"chat:read", "chat:edit"},
		TokenType:    "bearer",
		ExpiresAt:    &expiresAt,
	}
	dup := record.Clone()
	assert.Equal(t, record, dup)

	dup.Scopes[0] = "mutated"
	*dup.ExpiresAt = dup.ExpiresAt.Add(time.Hour)
	assert.Equal(t, "chat:read", record.Scopes[0])
	assert.Equal(t, expiresAt, *record.ExpiresAt)
}
