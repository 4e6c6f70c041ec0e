package moderation

import (
	"context"
	"time"

	"mentorhub/internal/metrics"
	"mentorhub/internal/models"

	"github.com/rs/zerolog/log"
)

// banExpiry works out when a temporary ban ends. An explicit expiry wins
// over a duration. Other action types never expire.
func banExpiry(typ UserActionType, durationDays *int, expiresAt *time.Time, now time.Time) (*time.Time, error) {
	if typ != UserActionTemporaryBan {
		return nil, nil
	}
	var end time.Time
	switch {
	case expiresAt != nil:
		end = expiresAt.UTC()
	case durationDays != nil:
		if *durationDays < 1 {
			return nil, invalid("durationDays must be at least 1")
		}
		end = now.AddDate(0, 0, *durationDays)
	default:
		return nil, invalid("temporary bans require durationDays or expiresAt")
	}
	if !end.After(now) {
		return nil, invalid("expiresAt must be in the future")
	}
	return &end, nil
}

// TakeUserAction warns or bans the author of the reported content. For bans
// the action and the account suspension are written together.
func (e *Engine) TakeUserAction(ctx context.Context, adminID, reportID string, req models.TakeUserActionRequest) (*UserAction, error) {
	var out *UserAction
	err := e.run(ctx, "TakeUserAction", adminID, PermissionTakeUserAction, func(ctx context.Context) error {
		if err := checkRequest(&req); err != nil {
			return err
		}

		report, err := e.store.GetReport(ctx, reportID)
		if err != nil {
			return lookupErr("report", err)
		}
		content, err := e.loadContent(ctx, report)
		if err != nil {
			return err
		}
		targetID := content.ownerID()
		if targetID == "" {
			return invalid("unable to determine the target user for this report")
		}
		if _, err := e.store.GetUser(ctx, targetID); err != nil {
			return lookupErr("user", err)
		}

		typ := UserActionType(req.ActionType)
		now := e.clock()
		expiresAt, err := banExpiry(typ, req.DurationDays, req.ExpiresAt, now)
		if err != nil {
			return err
		}

		action := &UserAction{
			ID:         newID(),
			UserID:     targetID,
			ActionType: typ,
			Reason:     req.Reason,
			ReportID:   &report.ID,
			AdminID:    adminID,
			ExpiresAt:  expiresAt,
			IsActive:   true,
			Metadata:   req.Metadata,
			CreatedAt:  now,
		}
		err = e.store.WithTx(ctx, func(tx Store) error {
			if err := tx.CreateUserAction(ctx, action); err != nil {
				return err
			}
			if typ.IsBan() {
				return tx.SetAccountStatus(ctx, targetID, models.AccountStatusSuspended, expiresAt)
			}
			return nil
		})
		if err != nil {
			return persistence(err)
		}

		metrics.UserActionsTotal.WithLabelValues(string(typ), "apply").Inc()
		logEvent := log.Info().
			Str("action_id", action.ID).
			Str("report_id", report.ID).
			Str("user_id", targetID).
			Str("admin_id", adminID).
			Str("type", string(typ))
		if expiresAt != nil {
			logEvent = logEvent.Time("expires_at", *expiresAt)
		}
		logEvent.Msg("moderation: user action taken")

		metadata := map[string]any{"actionType": string(typ), "actionId": action.ID}
		if expiresAt != nil {
			metadata["expiresAt"] = expiresAt.Format(time.RFC3339)
		}
		if req.DurationDays != nil {
			metadata["durationDays"] = *req.DurationDays
		}
		e.audit.Write(ctx, ModerationLog{
			ActionType:    LogUserActionTaken,
			PerformedByID: adminID,
			TargetUserID:  &targetID,
			ReportID:      &report.ID,
			PostID:        report.PostID,
			CommentID:     report.CommentID,
			Details:       string(typ) + ": " + req.Reason,
			Metadata:      metadata,
		})

		out = action
		return nil
	})
	return out, err
}

// RevokeUserAction lifts an active action. The account is only restored
// once no other ban on the user remains active.
func (e *Engine) RevokeUserAction(ctx context.Context, adminID, actionID string, req models.RevokeUserActionRequest) (*UserAction, error) {
	var out *UserAction
	err := e.run(ctx, "RevokeUserAction", adminID, PermissionRevokeUserAction, func(ctx context.Context) error {
		if err := checkRequest(&req); err != nil {
			return err
		}

		action, err := e.store.GetUserAction(ctx, actionID)
		if err != nil {
			return lookupErr("user action", err)
		}
		if !action.IsActive {
			return conflict("user action has already been revoked")
		}

		now := e.clock()
		restored := false
		err = e.store.WithTx(ctx, func(tx Store) error {
			ok, err := tx.RevokeUserAction(ctx, action.ID, adminID, req.Reason, now)
			if err != nil {
				return persistence(err)
			}
			if !ok {
				return conflict("user action has already been revoked")
			}
			if !action.ActionType.IsBan() {
				return nil
			}
			remaining, err := tx.CountActiveBans(ctx, action.UserID, action.ID)
			if err != nil {
				return persistence(err)
			}
			if remaining > 0 {
				return nil
			}
			if err := tx.SetAccountStatus(ctx, action.UserID, models.AccountStatusActive, nil); err != nil {
				return persistence(err)
			}
			restored = true
			return nil
		})
		if err != nil {
			return err
		}

		action.IsActive = false
		action.RevokedAt = &now
		action.RevokedBy = &adminID
		action.RevokeReason = &req.Reason

		metrics.UserActionsTotal.WithLabelValues(string(action.ActionType), "revoke").Inc()
		log.Info().
			Str("action_id", action.ID).
			Str("user_id", action.UserID).
			Str("admin_id", adminID).
			Bool("account_restored", restored).
			Msg("moderation: user action revoked")

		e.audit.Write(ctx, ModerationLog{
			ActionType:    LogUserActionReverted,
			PerformedByID: adminID,
			TargetUserID:  &action.UserID,
			ReportID:      action.ReportID,
			Details:       "Revoked " + string(action.ActionType) + ": " + req.Reason,
			Metadata: map[string]any{
				"actionId":        action.ID,
				"actionType":      string(action.ActionType),
				"accountRestored": restored,
			},
		})

		out = action
		return nil
	})
	return out, err
}

func validActionFilter(f ActionFilter) error {
	switch f.ActionType {
	case "", UserActionWarning, UserActionTemporaryBan, UserActionPermanentBan:
		return nil
	}
	return invalid("actionType must be one of: WARNING, TEMPORARY_BAN, PERMANENT_BAN")
}

// ListUserActions returns user actions newest-first.
func (e *Engine) ListUserActions(ctx context.Context, adminID string, filter ActionFilter, cursor string, limit int) (*Page[UserAction], error) {
	var out *Page[UserAction]
	err := e.run(ctx, "ListUserActions", adminID, PermissionViewUserHistory, func(ctx context.Context) error {
		if err := validActionFilter(filter); err != nil {
			return err
		}
		limit = pageLimit(limit)
		actions, err := e.store.ListUserActions(ctx, filter, limit+1, cursor)
		if err != nil {
			return persistence(err)
		}
		out = paginate(actions, limit, func(a UserAction) string { return a.ID })
		return nil
	})
	return out, err
}
