package store

import (
	"bytes"
	"encoding/json"
	"strings"
)

// UserID is an opaque identity issued by the identity layer.
type UserID string

// String returns the identity as text.
func (u UserID) String() string { return string(u) }

// ParseUserID normalizes an identity value received on the wire.
// Strings and numbers are used as-is; objects carrying "$oid", "_id" or "id"
// collapse to that field. Anything else degrades to its raw text so that a
// malformed id never aborts a join.
func ParseUserID(raw json.RawMessage) UserID {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return UserID(strings.TrimSpace(s))
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return UserID(n.String())
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, key := range []string{"$oid", "_id", "id"} {
			if v, ok := obj[key]; ok {
				return ParseUserID(v)
			}
		}
	}

	return UserID(raw)
}

func containsUser(ids []UserID, id UserID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeUser(ids []UserID, id UserID) []UserID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
