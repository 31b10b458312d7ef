package auth

import "testing"

func strptr(s string) *string { return &s }

func validClaim() SessionClaim {
	return SessionClaim{
		UserID:    "11111111-1111-1111-1111-111111111111",
		Email:     "user@example.com",
		Name:      "User",
		CompanyID: strptr("22222222-2222-2222-2222-222222222222"),
		ProfileID: strptr("33333333-3333-3333-3333-333333333333"),
	}
}

func TestSessionClaim_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SessionClaim)
		wantErr bool
	}{
		{
			name:   "valid claim",
			mutate: func(c *SessionClaim) {},
		},
		{
			name: "nil company and profile are valid",
			mutate: func(c *SessionClaim) {
				c.CompanyID = nil
				c.ProfileID = nil
			},
		},
		{
			name:    "user id must be a uuid",
			mutate:  func(c *SessionClaim) { c.UserID = "not-a-uuid" },
			wantErr: true,
		},
		{
			name:    "empty user id",
			mutate:  func(c *SessionClaim) { c.UserID = "" },
			wantErr: true,
		},
		{
			name:    "malformed email",
			mutate:  func(c *SessionClaim) { c.Email = "not-an-email" },
			wantErr: true,
		},
		{
			name:    "empty name",
			mutate:  func(c *SessionClaim) { c.Name = "" },
			wantErr: true,
		},
		{
			name:    "company id must be a uuid when present",
			mutate:  func(c *SessionClaim) { c.CompanyID = strptr("bogus") },
			wantErr: true,
		},
		{
			name:    "profile id must be a uuid when present",
			mutate:  func(c *SessionClaim) { c.ProfileID = strptr("bogus") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claim := validClaim()
			tt.mutate(&claim)
			err := claim.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
