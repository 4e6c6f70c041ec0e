package sqlitestore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"mentorhub/internal/models"
	"mentorhub/internal/moderation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedContent(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "author", Handle: "author"}))
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "commenter", Handle: "commenter"}))
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "reporter", Handle: "reporter"}))
	require.NoError(t, s.CreateSubCommunity(ctx, &models.SubCommunity{ID: "sc1", Name: "Go"}))
	require.NoError(t, s.CreatePost(ctx, &models.Post{ID: "p1", AuthorID: "author", SubCommunityID: ptr("sc1"), Title: "hello"}))
	require.NoError(t, s.CreateComment(ctx, &models.Comment{ID: "c1", PostID: "p1", UserID: "commenter", Content: "hi"}))
}

func newReport(id, reporter string, typ moderation.ReportType, postID string, commentID *string, at time.Time) *moderation.ContentReport {
	return &moderation.ContentReport{
		ID:         id,
		ReporterID: reporter,
		Reason:     "spam link in body",
		Type:       typ,
		PostID:     &postID,
		CommentID:  commentID,
		Status:     moderation.ReportStatusPending,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

func TestStore_Entities(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seedContent(t, s)

	t.Run("get missing rows", func(t *testing.T) {
		_, err := s.GetUser(ctx, "nobody")
		assert.ErrorIs(t, err, moderation.ErrRecordNotFound)
		_, err = s.GetPost(ctx, "nope")
		assert.ErrorIs(t, err, moderation.ErrRecordNotFound)
		_, err = s.GetComment(ctx, "nope")
		assert.ErrorIs(t, err, moderation.ErrRecordNotFound)
	})

	t.Run("user defaults", func(t *testing.T) {
		u, err := s.GetUser(ctx, "author")
		require.NoError(t, err)
		assert.Equal(t, models.RoleUser, u.Role)
		assert.Equal(t, models.AccountStatusActive, u.AccountStatus)
		assert.Nil(t, u.LockedUntil)
	})

	t.Run("set account status", func(t *testing.T) {
		until := base.Add(48 * time.Hour)
		require.NoError(t, s.SetAccountStatus(ctx, "author", models.AccountStatusSuspended, &until))

		u, err := s.GetUser(ctx, "author")
		require.NoError(t, err)
		assert.Equal(t, models.AccountStatusSuspended, u.AccountStatus)
		require.NotNil(t, u.LockedUntil)
		assert.True(t, until.Equal(*u.LockedUntil))

		require.NoError(t, s.SetAccountStatus(ctx, "author", models.AccountStatusActive, nil))
		u, err = s.GetUser(ctx, "author")
		require.NoError(t, err)
		assert.Equal(t, models.AccountStatusActive, u.AccountStatus)
		assert.Nil(t, u.LockedUntil)

		err = s.SetAccountStatus(ctx, "nobody", models.AccountStatusActive, nil)
		assert.ErrorIs(t, err, moderation.ErrRecordNotFound)
	})

	t.Run("soft delete only once", func(t *testing.T) {
		del := models.Deletion{By: "admin", Reason: "harassment in thread", At: base}
		ok, err := s.SoftDeleteComment(ctx, "c1", del)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.SoftDeleteComment(ctx, "c1", del)
		require.NoError(t, err)
		assert.False(t, ok)

		c, err := s.GetComment(ctx, "c1")
		require.NoError(t, err)
		assert.True(t, c.IsDeleted)
		assert.Equal(t, "admin", *c.DeletedBy)
		assert.Equal(t, "harassment in thread", *c.DeletionReason)

		p, err := s.GetPost(ctx, "p1")
		require.NoError(t, err)
		assert.False(t, p.IsDeleted, "deleting a comment leaves its post alone")
	})
}

func TestStore_PendingReportUniqueness(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seedContent(t, s)

	require.NoError(t, s.CreateReport(ctx, newReport("r01", "reporter", moderation.ReportTypeComment, "p1", ptr("c1"), base)))

	// Same reporter, same comment, still pending
	err := s.CreateReport(ctx, newReport("r02", "reporter", moderation.ReportTypeComment, "p1", ptr("c1"), base))
	assert.ErrorIs(t, err, moderation.ErrDuplicatePending)

	// A post report on the parent post is a different content item
	require.NoError(t, s.CreateReport(ctx, newReport("r03", "reporter", moderation.ReportTypePost, "p1", nil, base)))
	err = s.CreateReport(ctx, newReport("r04", "reporter", moderation.ReportTypePost, "p1", nil, base))
	assert.ErrorIs(t, err, moderation.ErrDuplicatePending)

	found, err := s.FindPendingReport(ctx, "reporter", moderation.ReportTypeComment, "p1", ptr("c1"))
	require.NoError(t, err)
	assert.Equal(t, "r01", found.ID)

	found, err = s.FindPendingReport(ctx, "reporter", moderation.ReportTypePost, "p1", nil)
	require.NoError(t, err)
	assert.Equal(t, "r03", found.ID)

	// Once closed, the reporter may report the same content again
	ok, err := s.ResolvePending(ctx, "r01", moderation.ReportStatusDismissed, "admin", base)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = s.FindPendingReport(ctx, "reporter", moderation.ReportTypeComment, "p1", ptr("c1"))
	assert.ErrorIs(t, err, moderation.ErrRecordNotFound)
	require.NoError(t, s.CreateReport(ctx, newReport("r05", "reporter", moderation.ReportTypeComment, "p1", ptr("c1"), base)))
}

func TestStore_ResolvePending(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seedContent(t, s)
	require.NoError(t, s.CreateReport(ctx, newReport("r01", "reporter", moderation.ReportTypePost, "p1", nil, base)))

	resolvedAt := base.Add(time.Hour)
	ok, err := s.ResolvePending(ctx, "r01", moderation.ReportStatusAddressed, "admin", resolvedAt)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ResolvePending(ctx, "r01", moderation.ReportStatusDismissed, "other-admin", resolvedAt)
	require.NoError(t, err)
	assert.False(t, ok, "closed reports stay closed")

	r, err := s.GetReport(ctx, "r01")
	require.NoError(t, err)
	assert.Equal(t, moderation.ReportStatusAddressed, r.Status)
	assert.Equal(t, "admin", *r.HandlerID)
	assert.True(t, resolvedAt.Equal(r.UpdatedAt))

	ok, err = s.ResolvePending(ctx, "missing", moderation.ReportStatusAddressed, "admin", resolvedAt)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_BatchResolve(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seedContent(t, s)

	for i, reporter := range []string{"author", "commenter", "reporter"} {
		require.NoError(t, s.CreateUser(ctx, &models.User{ID: reporter + "-2", Handle: reporter + "-2"}))
		require.NoError(t, s.CreateReport(ctx, newReport(fmt.Sprintf("r%02d", i+1), reporter+"-2", moderation.ReportTypePost, "p1", nil, base)))
	}
	_, err := s.ResolvePending(ctx, "r02", moderation.ReportStatusDismissed, "admin", base)
	require.NoError(t, err)

	ids, err := s.PendingReportIDs(ctx, []string{"r01", "r02", "r03", "missing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r03", "r01"}, ids)

	n, err := s.ResolvePendingBatch(ctx, []string{"r01", "r02", "r03", "missing"}, moderation.ReportStatusAddressed, "admin", base)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	r2, err := s.GetReport(ctx, "r02")
	require.NoError(t, err)
	assert.Equal(t, moderation.ReportStatusDismissed, r2.Status, "already closed reports are untouched")

	ids, err = s.PendingReportIDs(ctx, []string{"r01", "r02", "r03"})
	require.NoError(t, err)
	assert.Empty(t, ids)

	n, err = s.ResolvePendingBatch(ctx, nil, moderation.ReportStatusAddressed, "admin", base)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_ListReports(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seedContent(t, s)

	for i := 1; i <= 5; i++ {
		reporter := fmt.Sprintf("user-%d", i)
		require.NoError(t, s.CreateUser(ctx, &models.User{ID: reporter, Handle: reporter}))
		r := newReport(fmt.Sprintf("r%02d", i), reporter, moderation.ReportTypePost, "p1", nil, base.Add(time.Duration(i)*time.Hour))
		r.SubCommunityID = ptr("sc1")
		if i%2 == 0 {
			r.Type = moderation.ReportTypeComment
			r.CommentID = ptr("c1")
			r.Reason = "100% off coupon_code spam"
		}
		require.NoError(t, s.CreateReport(ctx, r))
	}

	t.Run("cursor pagination newest first", func(t *testing.T) {
		first, err := s.ListReports(ctx, moderation.ReportFilter{}, 2, "")
		require.NoError(t, err)
		require.Len(t, first, 2)
		assert.Equal(t, "r05", first[0].ID)
		assert.Equal(t, "r04", first[1].ID)

		next, err := s.ListReports(ctx, moderation.ReportFilter{}, 2, first[1].ID)
		require.NoError(t, err)
		require.Len(t, next, 2)
		assert.Equal(t, "r03", next[0].ID)
		assert.Equal(t, "r02", next[1].ID)
	})

	tests := []struct {
		name   string
		filter moderation.ReportFilter
		want   []string
	}{
		{"by type", moderation.ReportFilter{Type: moderation.ReportTypeComment}, []string{"r04", "r02"}},
		{"by reporter", moderation.ReportFilter{ReporterID: "user-3"}, []string{"r03"}},
		{"by sub-community", moderation.ReportFilter{SubCommunityID: "sc1"}, []string{"r05", "r04", "r03", "r02", "r01"}},
		{"by unknown sub-community", moderation.ReportFilter{SubCommunityID: "sc9"}, nil},
		{"by date range", moderation.ReportFilter{From: ptr(base.Add(2 * time.Hour)), To: ptr(base.Add(3 * time.Hour))}, []string{"r03", "r02"}},
		{"search escapes wildcards", moderation.ReportFilter{Search: "100%"}, []string{"r04", "r02"}},
		{"search underscore is literal", moderation.ReportFilter{Search: "coupon_code"}, []string{"r04", "r02"}},
		{"search no match", moderation.ReportFilter{Search: "1000"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListReports(ctx, tt.filter, 0, "")
			require.NoError(t, err)
			var gotIDs []string
			for _, r := range got {
				gotIDs = append(gotIDs, r.ID)
			}
			assert.Equal(t, tt.want, gotIDs)
		})
	}

	t.Run("by handler", func(t *testing.T) {
		_, err := s.ResolvePending(ctx, "r01", moderation.ReportStatusAddressed, "admin", base)
		require.NoError(t, err)
		got, err := s.ListReports(ctx, moderation.ReportFilter{HandlerID: "admin", Status: moderation.ReportStatusAddressed}, 0, "")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "r01", got[0].ID)
	})
}

func TestStore_ListReportsByContentOwner(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seedContent(t, s)

	require.NoError(t, s.CreateReport(ctx, newReport("r01", "reporter", moderation.ReportTypePost, "p1", nil, base)))
	require.NoError(t, s.CreateReport(ctx, newReport("r02", "reporter", moderation.ReportTypeComment, "p1", ptr("c1"), base)))

	// Post author owns only the post report, not the comment under it
	got, err := s.ListReportsByContentOwner(ctx, "author")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r01", got[0].ID)

	got, err = s.ListReportsByContentOwner(ctx, "commenter")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r02", got[0].ID)

	got, err = s.ListReportsByContentOwner(ctx, "reporter")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_UserActions(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seedContent(t, s)

	actions := []moderation.UserAction{
		{ID: "a01", UserID: "author", ActionType: moderation.UserActionWarning, Reason: "first warning", AdminID: "admin", IsActive: true, CreatedAt: base},
		{ID: "a02", UserID: "author", ActionType: moderation.UserActionTemporaryBan, Reason: "second strike", AdminID: "admin", IsActive: true, ExpiresAt: ptr(base.Add(72 * time.Hour)), CreatedAt: base.Add(time.Hour)},
		{ID: "a03", UserID: "author", ActionType: moderation.UserActionPermanentBan, Reason: "third strike", AdminID: "admin", IsActive: true, CreatedAt: base.Add(2 * time.Hour), Metadata: map[string]any{"source": "appeal-queue"}},
		{ID: "a04", UserID: "commenter", ActionType: moderation.UserActionTemporaryBan, Reason: "spam", AdminID: "admin", IsActive: true, CreatedAt: base.Add(3 * time.Hour)},
	}
	for i := range actions {
		require.NoError(t, s.CreateUserAction(ctx, &actions[i]))
	}

	got, err := s.GetUserAction(ctx, "a03")
	require.NoError(t, err)
	assert.Equal(t, "appeal-queue", got.Metadata["source"])

	n, err := s.CountActiveBans(ctx, "author", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.CountActiveBans(ctx, "author", "a02")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.CountActiveBans(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	ok, err := s.RevokeUserAction(ctx, "a03", "admin", "appeal approved", base)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.RevokeUserAction(ctx, "a03", "admin", "appeal approved", base)
	require.NoError(t, err)
	assert.False(t, ok)

	revoked, err := s.GetUserAction(ctx, "a03")
	require.NoError(t, err)
	assert.False(t, revoked.IsActive)
	assert.Equal(t, "admin", *revoked.RevokedBy)
	assert.Equal(t, "appeal approved", *revoked.RevokeReason)

	n, err = s.CountActiveBans(ctx, "author", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err := s.ListUserActions(ctx, moderation.ActionFilter{UserID: "author"}, 0, "")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a03", list[0].ID)

	list, err = s.ListUserActions(ctx, moderation.ActionFilter{UserID: "author", ActiveOnly: true}, 0, "")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = s.ListUserActions(ctx, moderation.ActionFilter{ActionType: moderation.UserActionTemporaryBan}, 1, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a04", list[0].ID)

	targets, err := s.TopActionTargets(ctx, base, 5)
	require.NoError(t, err)
	assert.Equal(t, []moderation.CountEntry{{Key: "author", Count: 3}, {Key: "commenter", Count: 1}}, targets)
}

func TestStore_Aggregates(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seedContent(t, s)

	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "other", Handle: "other"}))
	require.NoError(t, s.CreateReport(ctx, newReport("r01", "reporter", moderation.ReportTypePost, "p1", nil, base.Add(-48*time.Hour))))
	require.NoError(t, s.CreateReport(ctx, newReport("r02", "reporter", moderation.ReportTypeComment, "p1", ptr("c1"), base)))
	require.NoError(t, s.CreateReport(ctx, newReport("r03", "other", moderation.ReportTypeComment, "p1", ptr("c1"), base)))
	_, err := s.ResolvePending(ctx, "r03", moderation.ReportStatusDismissed, "admin", base)
	require.NoError(t, err)

	since := base.Add(-time.Hour)

	total, err := s.CountReports(ctx, since, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	all, err := s.CountReports(ctx, time.Time{}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), all)

	dismissed, err := s.CountReports(ctx, since, moderation.ReportStatusDismissed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dismissed)

	byType, err := s.CountReportsByType(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, []moderation.CountEntry{{Key: "COMMENT", Count: 2}}, byType)

	reporters, err := s.TopReporters(ctx, time.Time{}, 1)
	require.NoError(t, err)
	assert.Equal(t, []moderation.CountEntry{{Key: "reporter", Count: 2}}, reporters)
}

func TestStore_Logs(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	entries := []moderation.ModerationLog{
		{ID: "l01", ActionType: moderation.LogReportCreated, PerformedByID: "reporter", TargetUserID: ptr("author"), CreatedAt: base.Add(-72 * time.Hour)},
		{ID: "l02", ActionType: moderation.LogReportResolved, PerformedByID: "admin", ReportID: ptr("r01"), CreatedAt: base, Metadata: map[string]any{"notes": "checked"}},
		{ID: "l03", ActionType: moderation.LogUserActionTaken, PerformedByID: "admin", TargetUserID: ptr("author"), CreatedAt: base.Add(time.Hour)},
	}
	for i := range entries {
		require.NoError(t, s.AppendLog(ctx, &entries[i]))
	}

	got, err := s.ListLogs(ctx, moderation.LogFilter{PerformedByID: "admin"}, 0, "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "l03", got[0].ID)
	assert.Equal(t, "checked", got[1].Metadata["notes"])

	got, err = s.ListLogs(ctx, moderation.LogFilter{TargetUserID: "author"}, 1, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "l03", got[0].ID)

	got, err = s.ListLogs(ctx, moderation.LogFilter{TargetUserID: "author"}, 1, "l03")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "l01", got[0].ID)

	since := base.Add(-time.Hour)
	got, err = s.ListLogs(ctx, moderation.LogFilter{Since: &since}, 0, "")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.ListLogs(ctx, moderation.LogFilter{ActionType: moderation.LogReportCreated}, 0, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "l01", got[0].ID)
}

func TestStore_WithTx(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seedContent(t, s)

	t.Run("rolls back every write on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.WithTx(ctx, func(tx moderation.Store) error {
			action := &moderation.UserAction{ID: "a01", UserID: "author", ActionType: moderation.UserActionPermanentBan, Reason: "gone", AdminID: "admin", IsActive: true, CreatedAt: base}
			require.NoError(t, tx.CreateUserAction(ctx, action))
			require.NoError(t, tx.SetAccountStatus(ctx, "author", models.AccountStatusSuspended, nil))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = s.GetUserAction(ctx, "a01")
		assert.ErrorIs(t, err, moderation.ErrRecordNotFound)
		u, err := s.GetUser(ctx, "author")
		require.NoError(t, err)
		assert.Equal(t, models.AccountStatusActive, u.AccountStatus)
	})

	t.Run("commits on success", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx moderation.Store) error {
			action := &moderation.UserAction{ID: "a02", UserID: "author", ActionType: moderation.UserActionPermanentBan, Reason: "gone", AdminID: "admin", IsActive: true, CreatedAt: base}
			if err := tx.CreateUserAction(ctx, action); err != nil {
				return err
			}
			return tx.SetAccountStatus(ctx, "author", models.AccountStatusSuspended, nil)
		})
		require.NoError(t, err)

		_, err = s.GetUserAction(ctx, "a02")
		require.NoError(t, err)
		u, err := s.GetUser(ctx, "author")
		require.NoError(t, err)
		assert.Equal(t, models.AccountStatusSuspended, u.AccountStatus)
	})
}
