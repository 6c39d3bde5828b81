package model

import "github.com/google/uuid"

type Role string

const (
	RoleIssuer Role = "ISSUER"
	RoleBidder Role = "BIDDER"
)

// Principal is the authenticated actor extracted from the access token.
type Principal struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   Role
}

func (p Principal) IsIssuer() bool { return p.Role == RoleIssuer }
func (p Principal) IsBidder() bool { return p.Role == RoleBidder }
