// Package telegram verifies Mini App launch credentials and talks to the
// Bot API.
package telegram

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

var (
	ErrEmptyInitData = errors.New("initData is empty")
	ErrMissingHash   = errors.New("initData has no hash")
	ErrBadSignature  = errors.New("initData signature mismatch")
	ErrMissingUser   = errors.New("initData has no valid user")
	ErrExpired       = errors.New("initData is too old")
)

// WebAppUser is the `user` field of initData.
type WebAppUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// FullName joins first and last name the way the storefront displays it.
func (u WebAppUser) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Verifier checks initData strings signed with one bot token. It holds no
// mutable state and is safe for concurrent use.
type Verifier struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewVerifier derives the WebApp secret from botToken. A maxAge of zero
// disables the auth_date freshness check.
func NewVerifier(botToken string, maxAge time.Duration) *Verifier {
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(botToken))
	return &Verifier{secret: mac.Sum(nil), maxAge: maxAge, now: time.Now}
}

// Verify authenticates initData and returns the embedded user.
func (v *Verifier) Verify(initData string) (*WebAppUser, error) {
	if initData == "" {
		return nil, ErrEmptyInitData
	}
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, ErrBadSignature
	}
	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrMissingHash
	}
	got, err := hex.DecodeString(hash)
	if err != nil {
		return nil, ErrBadSignature
	}
	if !hmac.Equal(got, v.sum(values)) {
		return nil, ErrBadSignature
	}

	if v.maxAge > 0 {
		ts, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil || v.now().Sub(time.Unix(ts, 0)) > v.maxAge {
			return nil, ErrExpired
		}
	}

	raw := values.Get("user")
	if raw == "" {
		return nil, ErrMissingUser
	}
	var user WebAppUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.ID == 0 {
		return nil, ErrMissingUser
	}
	return &user, nil
}

// Sign returns values encoded as initData with a valid hash appended.
func (v *Verifier) Sign(values url.Values) string {
	out := url.Values{}
	for k, vs := range values {
		if k != "hash" {
			out[k] = vs
		}
	}
	out.Set("hash", hex.EncodeToString(v.sum(out)))
	return out.Encode()
}

func (v *Verifier) sum(values url.Values) []byte {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + values.Get(k)
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strings.Join(lines, "\n")))
	return mac.Sum(nil)
}
