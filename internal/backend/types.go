package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/PolarWolf314/sealreel/internal/grants"
	"github.com/PolarWolf314/sealreel/internal/recovery"
	"github.com/PolarWolf314/sealreel/internal/secrets"
)

// ID accepts both JSON numbers and strings, since the backend uses integer
// primary keys.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Timestamp accepts RFC 3339 times with or without a zone offset. Times
// without a zone are taken as UTC, which is how the backend stores them.
type Timestamp time.Time

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*ts = Timestamp{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			*ts = Timestamp(t)
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// Time returns ts as a time.Time.
func (ts Timestamp) Time() time.Time {
	return time.Time(ts)
}

// Account is the response of GET /auth/users/me.
type Account struct {
	ID         ID     `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	FirstLogin bool   `json:"first_login"`
	PublicKey  string `json:"public_key"`
}

// Recovery converts a to the view the recovery flow needs.
func (a *Account) Recovery() recovery.Account {
	return recovery.Account{
		ID:           string(a.ID),
		Name:         a.Name,
		Email:        a.Email,
		FirstLogin:   a.FirstLogin,
		PublicKeyPEM: a.PublicKey,
	}
}

// AccessRequestItem is one entry of GET /videos/requests.
type AccessRequestItem struct {
	ID                 ID        `json:"id"`
	State              string    `json:"state"`
	RequestedAt        Timestamp `json:"requested_at"`
	RequesterID        ID        `json:"requester_id"`
	RequesterName      string    `json:"requester_name"`
	RequesterPublicKey string    `json:"requester_public_key"`
	VideoID            ID        `json:"video_id"`
	VideoTitle         string    `json:"video_title"`
	OwnerWrappedKey    string    `json:"owner_wrapped_key"`
}

// AccessRequest converts the wire item to a grants.AccessRequest.
func (i AccessRequestItem) AccessRequest() *grants.AccessRequest {
	state := grants.State(i.State)
	if state == "" {
		state = grants.StatePending
	}
	return &grants.AccessRequest{
		ID:                 string(i.ID),
		RequesterID:        string(i.RequesterID),
		RequesterName:      i.RequesterName,
		RequesterPublicKey: i.RequesterPublicKey,
		ContentID:          string(i.VideoID),
		ContentTitle:       i.VideoTitle,
		OwnerWrappedKey:    secrets.WrappedKey(i.OwnerWrappedKey),
		State:              state,
		RequestedAt:        i.RequestedAt.Time(),
	}
}

// ContentItem is one entry of GET /videos/my_accessible_videos.
type ContentItem struct {
	ID         ID     `json:"id"`
	Title      string `json:"title"`
	IsOwner    bool   `json:"is_owner"`
	WrappedKey string `json:"wrapped_key"`
	GrantedKey string `json:"granted_key"`
}

// Key returns the WrappedKey addressed to the caller: the owner's own copy,
// or the grant if the caller is a viewer.
func (c ContentItem) Key() secrets.WrappedKey {
	if c.IsOwner {
		return secrets.WrappedKey(c.WrappedKey)
	}
	return secrets.WrappedKey(c.GrantedKey)
}

// Upload describes a sealed item to store.
type Upload struct {
	FileName    string
	Title       string
	Description string
	Content     []byte
	WrappedKey  secrets.WrappedKey
}

// Download is a stored ciphertext and its optional backend signature.
type Download struct {
	Content   []byte
	Signature string
}
