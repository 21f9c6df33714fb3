// Package grants implements the owner side of the access grant protocol:
// an access request is either approved, by re-wrapping the owner's content
// key to the requester, or rejected. Both outcomes are terminal.
package grants

import (
	"context"
	"fmt"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
	"github.com/PolarWolf314/sealreel/internal/secrets"
)

// State is the lifecycle state of an AccessRequest.
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateRejected State = "rejected"
)

// Terminal reports whether no further transition is allowed from s.
func (s State) Terminal() bool {
	return s == StateApproved || s == StateRejected
}

// AccessRequest is a viewer's request to open one content item.
type AccessRequest struct {
	ID                 string
	RequesterID        string
	RequesterName      string
	RequesterPublicKey string
	ContentID          string
	ContentTitle       string
	OwnerWrappedKey    secrets.WrappedKey
	State              State
	RequestedAt        time.Time
}

// Courier carries grant outcomes to the backend. It persists what it is
// handed and performs no cryptography.
type Courier interface {
	DeliverGrant(ctx context.Context, requestID string, granted secrets.WrappedKey) error
	RecordRejection(ctx context.Context, requestID string) error
}

// Protocol runs owner decisions on access requests.
type Protocol struct {
	wrapper *secrets.Wrapper
	courier Courier
}

// New returns a Protocol that re-wraps with wrapper and reports through
// courier.
func New(wrapper *secrets.Wrapper, courier Courier) *Protocol {
	return &Protocol{wrapper: wrapper, courier: courier}
}

// Approve re-wraps ownerWrapped to requesterPublicPEM and hands only the
// resulting WrappedKey to the courier. req moves to approved once the
// courier accepts it. The requester must have published a public key.
func (p *Protocol) Approve(ctx context.Context, req *AccessRequest, requesterPublicPEM string, ownerWrapped secrets.WrappedKey) (secrets.WrappedKey, error) {
	if err := checkPending(req); err != nil {
		return "", kerrors.Wrap("approve request", err)
	}
	if strings.TrimSpace(requesterPublicPEM) == "" {
		return "", kerrors.Wrap("approve request", fmt.Errorf("%w: %s has not published a public key", kerrors.ErrMissingRecipientKey, requesterLabel(req)))
	}

	granted, err := p.wrapper.Rewrap(ctx, ownerWrapped, requesterPublicPEM)
	if err != nil {
		return "", kerrors.Wrap("approve request", err)
	}

	if err := p.courier.DeliverGrant(ctx, req.ID, granted); err != nil {
		return "", fmt.Errorf("failed to deliver grant for request %s: %w", req.ID, err)
	}
	req.State = StateApproved
	return granted, nil
}

// ApproveRequest approves req using the key material the request carries.
func (p *Protocol) ApproveRequest(ctx context.Context, req *AccessRequest) (secrets.WrappedKey, error) {
	return p.Approve(ctx, req, req.RequesterPublicKey, req.OwnerWrappedKey)
}

// Reject records a rejection. No key material is touched.
func (p *Protocol) Reject(ctx context.Context, req *AccessRequest) error {
	if err := checkPending(req); err != nil {
		return kerrors.Wrap("reject request", err)
	}
	if err := p.courier.RecordRejection(ctx, req.ID); err != nil {
		return fmt.Errorf("failed to record rejection for request %s: %w", req.ID, err)
	}
	req.State = StateRejected
	return nil
}

// Open is the viewer side: unwrap with the local identity, then decrypt.
// wrapped is either the owner's own WrappedKey or a grant addressed to the
// viewer. No plaintext is returned unless both steps succeed.
func Open(ctx context.Context, wrapper *secrets.Wrapper, wrapped secrets.WrappedKey, encrypted []byte) ([]byte, error) {
	key, err := wrapper.Unwrap(ctx, wrapped)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	plaintext, err := secrets.DecryptContent(encrypted, key)
	if err != nil {
		return nil, kerrors.Wrap("open content", err)
	}
	return plaintext, nil
}

func checkPending(req *AccessRequest) error {
	if req.State == "" || req.State == StatePending {
		return nil
	}
	return fmt.Errorf("%w: request %s is already %s", kerrors.ErrRequestFinalized, req.ID, req.State)
}

func requesterLabel(req *AccessRequest) string {
	if req.RequesterName != "" {
		return req.RequesterName
	}
	if req.RequesterID != "" {
		return "requester " + req.RequesterID
	}
	return "requester"
}
