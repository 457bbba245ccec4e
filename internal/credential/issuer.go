// Package credential mints and verifies room join tokens.
package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	lkauth "github.com/livekit/protocol/auth"

	"github.com/miali88/flowonai/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid room token")
	ErrNoRoomGrant  = errors.New("room token grants no room")
)

// Grant is what a verified room token allows.
type Grant struct {
	Identity  domain.UserID
	Name      string
	Room      domain.RoomName
	ExpiresAt time.Time
}

// Issuer mints LiveKit-compatible access tokens, so the same token joins a
// LiveKit server or the built-in SFU.
type Issuer struct {
	apiKey    string
	apiSecret string
	ttl       time.Duration
}

func NewIssuer(apiKey, apiSecret string, ttl time.Duration) (*Issuer, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("credential: api key and secret are required")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Issuer{apiKey: apiKey, apiSecret: apiSecret, ttl: ttl}, nil
}

// Issue mints a token that lets userID join the room of agentID.
func (i *Issuer) Issue(agentID, userID string) (string, Grant, error) {
	room, err := domain.AgentRoom(agentID, userID)
	if err != nil {
		return "", Grant{}, err
	}
	at := lkauth.NewAccessToken(i.apiKey, i.apiSecret).
		SetIdentity(userID).
		SetName(userID).
		SetValidFor(i.ttl).
		SetVideoGrant(&lkauth.VideoGrant{
			RoomJoin: true,
			Room:     string(room),
		})
	token, err := at.ToJWT()
	if err != nil {
		return "", Grant{}, fmt.Errorf("sign room token: %w", err)
	}
	return token, Grant{
		Identity:  domain.UserID(userID),
		Name:      userID,
		Room:      room,
		ExpiresAt: time.Now().Add(i.ttl),
	}, nil
}

type roomClaims struct {
	jwt.RegisteredClaims
	Name  string              `json:"name,omitempty"`
	Video *lkauth.VideoGrant `json:"video,omitempty"`
}

// Verify checks a token minted by Issue (or any token signed with the same
// key pair) and returns its room grant.
func (i *Issuer) Verify(raw string) (Grant, error) {
	var claims roomClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(i.apiSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.apiKey),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Grant{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Grant{}, fmt.Errorf("%w: missing identity", ErrInvalidToken)
	}
	if claims.Video == nil || !claims.Video.RoomJoin || claims.Video.Room == "" {
		return Grant{}, ErrNoRoomGrant
	}
	g := Grant{
		Identity: domain.UserID(claims.Subject),
		Name:     claims.Name,
		Room:     domain.RoomName(claims.Video.Room),
	}
	if claims.ExpiresAt != nil {
		g.ExpiresAt = claims.ExpiresAt.Time
	}
	return g, nil
}
