package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/sealreel/internal/audit"
	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
	"github.com/PolarWolf314/sealreel/internal/grants"
)

// RequestsOptions configures Requests.
type RequestsOptions struct {
	// All includes approved and rejected requests.
	All bool
}

// Requests lists access requests for the user's content, pending only
// unless opts.All is set.
func Requests(ctx context.Context, env *Env, opts RequestsOptions) ([]*grants.AccessRequest, error) {
	reqs, err := env.Client.Requests(ctx)
	if err != nil {
		return nil, err
	}
	if opts.All {
		return reqs, nil
	}
	pending := reqs[:0]
	for _, r := range reqs {
		if !r.State.Terminal() {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

// RequestAccess asks the owner of contentID for access. No cryptography is
// involved; the owner re-wraps the key on approval.
func RequestAccess(ctx context.Context, env *Env, contentID string) error {
	if err := env.Client.RequestAccess(ctx, contentID); err != nil {
		return err
	}
	entry := audit.NewEntry(audit.OpRequest, env.Config)
	entry.ContentID = contentID
	audit.Log(entry)
	return nil
}

// Approve re-wraps the content key of the requested item to the requester
// and delivers only the new WrappedKey.
func Approve(ctx context.Context, env *Env, requestID string) (*grants.AccessRequest, error) {
	req, err := findRequest(ctx, env, requestID)
	if err != nil {
		return nil, err
	}

	if _, err := grants.New(env.Wrapper, env.Client).ApproveRequest(ctx, req); err != nil {
		return nil, err
	}
	env.Logger.Infof("Granted %s access to %s", req.RequesterName, req.ContentTitle)

	entry := audit.NewEntry(audit.OpApprove, env.Config)
	entry.RequestID = req.ID
	entry.ContentID = req.ContentID
	entry.Requester = req.RequesterName
	if id, err := env.Custody.Identity(ctx); err == nil {
		entry.Fingerprint = id.Fingerprint()
	}
	audit.Log(entry)

	return req, nil
}

// Reject declines an access request.
func Reject(ctx context.Context, env *Env, requestID string) (*grants.AccessRequest, error) {
	req, err := findRequest(ctx, env, requestID)
	if err != nil {
		return nil, err
	}

	if err := grants.New(env.Wrapper, env.Client).Reject(ctx, req); err != nil {
		return nil, err
	}

	entry := audit.NewEntry(audit.OpReject, env.Config)
	entry.RequestID = req.ID
	entry.ContentID = req.ContentID
	entry.Requester = req.RequesterName
	audit.Log(entry)

	return req, nil
}

func findRequest(ctx context.Context, env *Env, requestID string) (*grants.AccessRequest, error) {
	reqs, err := env.Client.Requests(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range reqs {
		if r.ID == requestID {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: access request %s", kerrors.ErrNotFound, requestID)
}
