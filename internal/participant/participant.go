package participant

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleOwner       Role = "owner"
	RoleAdmin       Role = "admin"
	RoleParticipant Role = "participant"
)

type Participant struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ChallengeID uuid.UUID `json:"challenge_id" db:"challenge_id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Role        Role      `json:"role" db:"role"`
	JoinedAt    time.Time `json:"joined_at" db:"joined_at"`
}

// CanManage reports whether this member may administer the challenge
// (remove participants, edit details).
func (p *Participant) CanManage() bool {
	return p.Role == RoleOwner || p.Role == RoleAdmin
}
