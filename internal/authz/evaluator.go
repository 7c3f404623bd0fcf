package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nivra-platform/nivra-core/internal/shared"
)

// Evaluator decides ALLOW/DENY for a (user, resource, action, society?)
// request. It is deterministic and side-effect free so it can run on every
// request without coordination; all state is read through the repository at
// evaluation time.
type Evaluator struct {
	repo Repository
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(repo Repository) *Evaluator {
	return &Evaluator{repo: repo}
}

// Evaluate applies the authorization algorithm:
//
//  1. Unknown or inactive users are denied.
//  2. The role's grants are resolved; a role granting nothing denies.
//  3. A grant matches iff its resource equals the requested one or is "all",
//     and its action equals the requested one or is "manage".
//  4. When a society scope is supplied for a society-scoped resource, the
//     caller additionally needs a society-admin binding, unless an
//     "all"-resource grant covering the action makes them platform-wide.
//
// A non-nil error reports a storage failure, never a denial.
func (e *Evaluator) Evaluate(ctx context.Context, userID uuid.UUID, resource shared.ResourceType, action shared.Action, societyID *uuid.UUID) (Decision, error) {
	acct, err := e.repo.GetAccount(ctx, userID)
	if err != nil {
		var notFound *shared.NotFoundError
		if errors.As(err, &notFound) {
			return Deny, nil
		}
		return Deny, err
	}
	if !acct.IsActive {
		return Deny, nil
	}

	scoped := societyID != nil && resource.SocietyScoped()

	var grants []Grant
	var bound bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		grants, err = e.repo.RoleGrants(gctx, acct.RoleID)
		return err
	})
	if scoped {
		g.Go(func() error {
			var err error
			bound, err = e.repo.HasSocietyBinding(gctx, userID, *societyID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Deny, err
	}

	matched := false
	platformWide := false
	for _, grant := range grants {
		if !grant.Matches(resource, action) {
			continue
		}
		matched = true
		if grant.Resource == shared.ResourceAll {
			platformWide = true
		}
	}
	if !matched {
		return Deny, nil
	}
	if scoped && !platformWide && !bound {
		return Deny, nil
	}
	return Allow, nil
}
