// Package auth validates the signed init-data credential issued by the chat
// client and decides who may read or mutate a game session.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxAge is how long a signed credential stays valid.
const DefaultMaxAge = 24 * time.Hour

var (
	ErrMissing   = errors.New("init data missing")
	ErrMalformed = errors.New("init data malformed")
	ErrSignature = errors.New("init data signature mismatch")
	ErrExpired   = errors.New("init data expired")
	ErrNoUser    = errors.New("init data has no user")
)

// Identity is the caller named by a verified credential.
type Identity struct {
	ID        string
	FirstName string
	Username  string
}

// DisplayName returns the name used on the roster.
func (i Identity) DisplayName() string {
	if name := strings.TrimSpace(i.FirstName); name != "" {
		return name
	}
	if name := strings.TrimSpace(i.Username); name != "" {
		return name
	}
	return "Player"
}

type webAppUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Verifier checks init-data signatures against the bot token.
type Verifier struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewVerifier derives the signing key from the bot token. An empty token
// produces a verifier that rejects every credential.
func NewVerifier(botToken string, maxAge time.Duration) *Verifier {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	v := &Verifier{maxAge: maxAge, now: time.Now}
	if botToken != "" {
		v.key = secretKey(botToken)
	}
	return v
}

func secretKey(botToken string) []byte {
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(botToken))
	return mac.Sum(nil)
}

func dataCheckString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	return strings.Join(lines, "\n")
}

func sign(key []byte, values url.Values) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(dataCheckString(values)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify validates the raw query-encoded init data and returns the caller.
func (v *Verifier) Verify(initData string) (Identity, error) {
	initData = strings.TrimSpace(initData)
	if initData == "" {
		return Identity{}, ErrMissing
	}
	if v.key == nil {
		return Identity{}, ErrSignature
	}
	values, err := url.ParseQuery(initData)
	if err != nil {
		return Identity{}, ErrMalformed
	}
	received := values.Get("hash")
	if received == "" {
		return Identity{}, ErrMalformed
	}
	if !hmac.Equal([]byte(sign(v.key, values)), []byte(strings.ToLower(received))) {
		return Identity{}, ErrSignature
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return Identity{}, ErrMalformed
	}
	if v.now().Sub(time.Unix(authDate, 0)) > v.maxAge {
		return Identity{}, ErrExpired
	}

	var user webAppUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return Identity{}, ErrNoUser
	}
	return Identity{
		ID:        strconv.FormatInt(user.ID, 10),
		FirstName: user.FirstName,
		Username:  user.Username,
	}, nil
}

// Sign builds a signed init-data string for the given fields. It is the
// counterpart of Verify and is used by tooling and tests.
func Sign(botToken string, values url.Values) string {
	out := url.Values{}
	for k, vs := range values {
		if k == "hash" || len(vs) == 0 {
			continue
		}
		out.Set(k, vs[0])
	}
	out.Set("hash", sign(secretKey(botToken), out))
	return out.Encode()
}

// SignUser signs init data for one user at the given time.
func SignUser(botToken string, userID int64, firstName string, at time.Time) string {
	user, _ := json.Marshal(webAppUser{ID: userID, FirstName: firstName})
	return Sign(botToken, url.Values{
		"auth_date": {strconv.FormatInt(at.Unix(), 10)},
		"query_id":  {"AAH" + strconv.FormatInt(userID, 10)},
		"user":      {string(user)},
	})
}
