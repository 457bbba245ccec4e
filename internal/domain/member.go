package domain

import "time"

// Member represents user's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	User     *User
	ClientID string
	Muted    bool
	JoinedAt time.Time
}

func NewMember(user *User, clientID string) *Member {
	return &Member{User: user, ClientID: clientID, JoinedAt: time.Now()}
}
