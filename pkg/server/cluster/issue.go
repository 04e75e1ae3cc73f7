package cluster

import (
	"context"

	"github.com/hotelbook/booking-server/pkg/server/model"
)

type Issue interface {
	CreateIssue(ctx context.Context, param *model.CreateIssueParam) (*model.Issue, error)
	ListIssues(ctx context.Context) ([]*model.Issue, error)
	UpdateIssue(ctx context.Context, param *model.UpdateIssueParam) (*model.Issue, error)
	DeleteIssue(ctx context.Context, issueID uint64) (*model.Issue, error)
}

// CreateIssue creates an issue with the lowest available id.
// It returns model.ErrInvalidArgument if the param is invalid.
func (c *Cluster) CreateIssue(ctx context.Context, param *model.CreateIssueParam) (*model.Issue, error) {
	if err := param.Validate(); err != nil {
		return nil, err
	}
	return c.storage.CreateIssue(ctx, param)
}

func (c *Cluster) ListIssues(ctx context.Context) ([]*model.Issue, error) {
	return c.storage.ListIssues(ctx)
}

// UpdateIssue updates the fields set in param.
// It returns model.ErrInvalidArgument if the param is invalid, and model.ErrIssueNotFound if the issue does not exist.
func (c *Cluster) UpdateIssue(ctx context.Context, param *model.UpdateIssueParam) (*model.Issue, error) {
	if err := param.Validate(); err != nil {
		return nil, err
	}
	return c.storage.UpdateIssue(ctx, param)
}

// DeleteIssue deletes the issue. It returns model.ErrIssueNotFound if the issue does not exist.
func (c *Cluster) DeleteIssue(ctx context.Context, issueID uint64) (*model.Issue, error) {
	return c.storage.DeleteIssue(ctx, issueID)
}
