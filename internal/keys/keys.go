// Package keys implements the opaque, URL-safe entity references handed to
// API clients. A key is a path of (kind, id) elements from the root ancestor
// down to the entity; the websafe form is the unpadded URL-safe base64 of
// that path.
package keys

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Entity kinds.
const (
	KindProfile    = "Profile"
	KindConference = "Conference"
	KindSession    = "Session"
	KindSpeaker    = "Speaker"
)

// ErrInvalidKey is returned when a websafe string cannot be decoded into a
// well-formed key.
var ErrInvalidKey = errors.New("keys: invalid key")

// parentKind lists the required parent kind for each kind; an empty value
// means the kind is a root.
var parentKind = map[string]string{
	KindProfile:    "",
	KindConference: KindProfile,
	KindSession:    KindConference,
	KindSpeaker:    "",
}

// Key identifies an entity. Exactly one of StringID and IntID is set.
type Key struct {
	Kind     string
	StringID string
	IntID    int64
	Parent   *Key
}

// NewProfileKey returns the root key of a user's profile.
func NewProfileKey(userID string) *Key {
	return &Key{Kind: KindProfile, StringID: userID}
}

// NewConferenceKey returns the key of a conference parented under its
// organizer's profile.
func NewConferenceKey(organizerUserID string, id int64) *Key {
	return &Key{Kind: KindConference, IntID: id, Parent: NewProfileKey(organizerUserID)}
}

// NewSessionKey returns the key of a session parented under its conference.
func NewSessionKey(organizerUserID string, conferenceID, id int64) *Key {
	return &Key{Kind: KindSession, IntID: id, Parent: NewConferenceKey(organizerUserID, conferenceID)}
}

// NewSpeakerKey returns the root key of a speaker.
func NewSpeakerKey(id int64) *Key {
	return &Key{Kind: KindSpeaker, IntID: id}
}

// Encode returns the websafe form of k.
func (k *Key) Encode() string {
	return base64.RawURLEncoding.EncodeToString([]byte(k.path()))
}

// String returns the readable key path.
func (k *Key) String() string {
	return k.path()
}

// Equal reports whether k and other identify the same entity.
func (k *Key) Equal(other *Key) bool {
	if k == nil || other == nil {
		return k == other
	}
	return k.path() == other.path()
}

// Root returns the top-most ancestor of k.
func (k *Key) Root() *Key {
	root := k
	for root.Parent != nil {
		root = root.Parent
	}
	return root
}

func (k *Key) path() string {
	var elems []string
	for cur := k; cur != nil; cur = cur.Parent {
		var elem string
		if cur.StringID != "" {
			elem = cur.Kind + ":s:" + url.PathEscape(cur.StringID)
		} else {
			elem = cur.Kind + ":i:" + strconv.FormatInt(cur.IntID, 10)
		}
		elems = append(elems, elem)
	}
	for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
		elems[i], elems[j] = elems[j], elems[i]
	}
	return strings.Join(elems, "/")
}

// Decode parses a websafe key and validates its kinds and parent chain.
func Decode(websafe string) (*Key, error) {
	websafe = strings.TrimSpace(websafe)
	if websafe == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(websafe, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	var key *Key
	for _, elem := range strings.Split(string(raw), "/") {
		parts := strings.SplitN(elem, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: malformed element %q", ErrInvalidKey, elem)
		}
		kind := parts[0]
		want, known := parentKind[kind]
		if !known {
			return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidKey, kind)
		}
		var got string
		if key != nil {
			got = key.Kind
		}
		if got != want {
			return nil, fmt.Errorf("%w: %s cannot be parented under %q", ErrInvalidKey, kind, got)
		}

		if (kind == KindProfile) != (parts[1] == "s") {
			return nil, fmt.Errorf("%w: bad id type in %q", ErrInvalidKey, elem)
		}

		next := &Key{Kind: kind, Parent: key}
		switch parts[1] {
		case "s":
			id, err := url.PathUnescape(parts[2])
			if err != nil || id == "" {
				return nil, fmt.Errorf("%w: bad string id in %q", ErrInvalidKey, elem)
			}
			next.StringID = id
		case "i":
			id, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("%w: bad numeric id in %q", ErrInvalidKey, elem)
			}
			next.IntID = id
		default:
			return nil, fmt.Errorf("%w: bad id type in %q", ErrInvalidKey, elem)
		}
		key = next
	}
	return key, nil
}

// DecodeKind decodes websafe and requires the key to be of kind.
func DecodeKind(websafe, kind string) (*Key, error) {
	key, err := Decode(websafe)
	if err != nil {
		return nil, err
	}
	if key.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s key, got %s", ErrInvalidKey, kind, key.Kind)
	}
	return key, nil
}

// ConferenceID returns the organizer and numeric id of a Conference key.
func ConferenceID(websafe string) (organizerUserID string, id int64, err error) {
	key, err := DecodeKind(websafe, KindConference)
	if err != nil {
		return "", 0, err
	}
	return key.Parent.StringID, key.IntID, nil
}

// SessionID returns the conference id and numeric id of a Session key.
func SessionID(websafe string) (conferenceID, id int64, err error) {
	key, err := DecodeKind(websafe, KindSession)
	if err != nil {
		return 0, 0, err
	}
	return key.Parent.IntID, key.IntID, nil
}

// SpeakerID returns the numeric id of a Speaker key.
func SpeakerID(websafe string) (int64, error) {
	key, err := DecodeKind(websafe, KindSpeaker)
	if err != nil {
		return 0, err
	}
	return key.IntID, nil
}
