package domain

import (
	"errors"
	"strings"
	"time"
)

type RoomName string

var ErrInvalidAgentID = errors.New("invalid agent id")

// Room is one agent conversation. A room only ever hosts a single user and
// the agent answering them.
type Room struct {
	Name      RoomName
	CreatedAt time.Time
}

// AgentRoom names the room in which userID talks to agentID.
func AgentRoom(agentID, userID string) (RoomName, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" || len(agentID) > MaxUserIDLen {
		return "", ErrInvalidAgentID
	}
	u, err := NewUser(userID, "")
	if err != nil {
		return "", err
	}
	return RoomName("agent-" + agentID + "-" + string(u.ID)), nil
}
