package endpoint

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/server/id"
	"github.com/hotelbook/booking-server/pkg/server/model"
	"github.com/hotelbook/booking-server/pkg/server/storage/kv"
	"github.com/hotelbook/booking-server/pkg/util/jsonutil"
	"github.com/hotelbook/booking-server/pkg/util/traceutil"
)

const (
	_issuePath   = "issues"
	_issuePrefix = _issuePath + kv.KeySeparator
)

// IssueNamespace is the id namespace of issues.
var IssueNamespace = id.Namespace{Name: "issue", Prefix: _issuePrefix}

// IssueEndpoint defines operations on issue.
type IssueEndpoint interface {
	CreateIssue(ctx context.Context, param *model.CreateIssueParam) (*model.Issue, error)
	ListIssues(ctx context.Context) ([]*model.Issue, error)
	UpdateIssue(ctx context.Context, param *model.UpdateIssueParam) (*model.Issue, error)
	DeleteIssue(ctx context.Context, issueID uint64) (*model.Issue, error)
}

// CreateIssue creates an issue with the lowest available id and returns it.
func (e *Endpoint) CreateIssue(ctx context.Context, param *model.CreateIssueParam) (*model.Issue, error) {
	logger := e.lg.With(traceutil.TraceLogField(ctx))

	now := time.Now().UTC()
	var issue *model.Issue
	_, err := e.Allocator(IssueNamespace).Create(ctx, func(id uint64) ([]byte, error) {
		issue = param.Issue(id, now)
		return jsonutil.Marshal(issue)
	})
	if err != nil {
		logger.Error("failed to create issue", zap.Error(err))
		return nil, errors.Wrap(err, "create issue")
	}

	return issue, nil
}

// ListIssues returns all issues in ascending order of id.
func (e *Endpoint) ListIssues(ctx context.Context) ([]*model.Issue, error) {
	logger := e.lg.With(traceutil.TraceLogField(ctx))

	issues, err := list[model.Issue](ctx, e, []byte(_issuePrefix))
	if err != nil {
		logger.Error("failed to list issues", zap.Error(err))
		return nil, errors.Wrap(err, "list issues")
	}
	return issues, nil
}

// UpdateIssue updates the fields set in param, restamps the update time and returns the updated issue.
// It returns model.ErrIssueNotFound if the issue does not exist.
func (e *Endpoint) UpdateIssue(ctx context.Context, param *model.UpdateIssueParam) (*model.Issue, error) {
	logger := e.lg.With(zap.Uint64("issue-id", param.IssueID), traceutil.TraceLogField(ctx))

	var issue *model.Issue
	err := e.KV.ExecInTxn(ctx, func(basicKV kv.BasicKV) error {
		key := issuePath(param.IssueID)
		i, err := get[model.Issue](ctx, basicKV, key)
		if err != nil {
			return errors.Wrap(err, "get issue")
		}
		if i == nil {
			return errors.WithMessagef(model.ErrIssueNotFound, "issue %d", param.IssueID)
		}

		param.Apply(i, time.Now().UTC())
		issue = i
		return put(ctx, basicKV, key, i)
	})
	if err != nil {
		logger.Error("failed to update issue", zap.Error(err))
		return nil, errors.Wrap(err, "update issue")
	}

	return issue, nil
}

// DeleteIssue deletes the issue and returns it.
// It returns model.ErrIssueNotFound if the issue does not exist.
func (e *Endpoint) DeleteIssue(ctx context.Context, issueID uint64) (*model.Issue, error) {
	logger := e.lg.With(zap.Uint64("issue-id", issueID), traceutil.TraceLogField(ctx))

	prevV, err := e.KV.Delete(ctx, issuePath(issueID), true)
	if err != nil {
		logger.Error("failed to delete issue", zap.Error(err))
		return nil, errors.Wrap(err, "delete issue")
	}
	if prevV == nil {
		logger.Warn("issue not found when delete issue")
		return nil, errors.WithMessagef(model.ErrIssueNotFound, "issue %d", issueID)
	}

	issue, err := unmarshal[model.Issue](prevV)
	if err != nil {
		logger.Error("failed to parse deleted issue", zap.Error(err))
		return nil, errors.Wrap(err, "delete issue")
	}
	return issue, nil
}

func issuePath(issueID uint64) []byte {
	return IssueNamespace.RecordKey(issueID)
}
