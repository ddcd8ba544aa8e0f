// Package media issues join credentials for the external audio/video
// transport. The coordinator never touches media itself; it only decides
// which tier a participant may connect with.
package media

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/immxrtalbeast/liveclass/internal/domain"
)

var ErrInvalidToken = errors.New("invalid media token")

type Claims struct {
	ChannelID string           `json:"channel"`
	Tier      domain.MediaTier `json:"tier"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret, issuer string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("media secret is required")
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Issuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a credential for userID on channelID.
func (i *Issuer) Issue(channelID, userID string, tier domain.MediaTier) (*domain.JoinCredential, error) {
	now := i.now().UTC()
	expires := now.Add(i.ttl)

	claims := Claims{
		ChannelID: channelID,
		Tier:      tier,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{channelID},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign media token: %w", err)
	}

	return &domain.JoinCredential{
		Token:     token,
		ChannelID: channelID,
		UserID:    userID,
		Tier:      tier,
		ExpiresAt: expires,
	}, nil
}

// Verify parses a credential issued by i.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
