package domain

import (
	"encoding/json"
	"strconv"
)

// Identity is the durable identity of an upstream account as far as the
// proxy is concerned: the upstream id plus, when known, the account email.
type Identity struct {
	ExternalUserID string
	Email          string
}

// identityShape covers the payload shapes the upstream API is known to
// return for an authenticated principal: the fields at top level, nested
// under "user", or with a Mongo-style "_id" key.
type identityShape struct {
	ID       json.RawMessage `json:"id"`
	MongoID  json.RawMessage `json:"_id"`
	Email    string          `json:"email"`
	User     *identityUser   `json:"user"`
}

type identityUser struct {
	ID      json.RawMessage `json:"id"`
	MongoID json.RawMessage `json:"_id"`
	Email   string          `json:"email"`
}

// ExtractIdentity pulls the external user id and email out of an upstream
// payload, trying each known shape in order and stopping at the first field
// that yields a value. It reports false when no identity at all could be
// extracted.
func ExtractIdentity(payload []byte) (Identity, bool) {
	var shape identityShape
	if err := json.Unmarshal(payload, &shape); err != nil {
		return Identity{}, false
	}

	var ident Identity
	for _, raw := range []json.RawMessage{shape.ID, userID(shape.User), shape.MongoID, userMongoID(shape.User)} {
		if id := scalarString(raw); id != "" {
			ident.ExternalUserID = id
			break
		}
	}
	ident.Email = shape.Email
	if ident.Email == "" && shape.User != nil {
		ident.Email = shape.User.Email
	}

	return ident, ident.ExternalUserID != "" || ident.Email != ""
}

func userID(u *identityUser) json.RawMessage {
	if u == nil {
		return nil
	}
	return u.ID
}

func userMongoID(u *identityUser) json.RawMessage {
	if u == nil {
		return nil
	}
	return u.MongoID
}

// scalarString renders a raw JSON scalar as a string. Upstream ids arrive
// either as strings or as numbers; numbers keep their canonical decimal form.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
