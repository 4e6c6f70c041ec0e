package moderation

import (
	"context"
	"errors"

	"mentorhub/internal/models"
)

// UserActionView is a user action with the people and report behind it.
type UserActionView struct {
	UserAction
	Admin   *models.User   `json:"admin,omitempty"`
	Report  *ContentReport `json:"report,omitempty"`
	Revoker *models.User   `json:"revoker,omitempty"`
}

// ViolationCounts are derived from a user's actions and reports.
type ViolationCounts struct {
	TotalViolations int `json:"totalViolations"`
	ActiveActions   int `json:"activeActions"`
	ActiveBans      int `json:"activeBans"`
	TotalReports    int `json:"totalReports"`
}

// ViolationHistory is everything moderation knows about one user.
type ViolationHistory struct {
	User    *models.User     `json:"user"`
	Actions []UserActionView `json:"actions"`
	Reports []ContentReport  `json:"reports"`
	Counts  ViolationCounts  `json:"counts"`
}

// UserViolationHistory lists every action taken against userID and every
// report filed against content they wrote, newest-first.
func (e *Engine) UserViolationHistory(ctx context.Context, adminID, userID string) (*ViolationHistory, error) {
	var out *ViolationHistory
	err := e.run(ctx, "UserViolationHistory", adminID, PermissionViewUserHistory, func(ctx context.Context) error {
		user, err := e.store.GetUser(ctx, userID)
		if err != nil {
			return lookupErr("user", err)
		}

		actions, err := e.store.ListUserActions(ctx, ActionFilter{UserID: userID}, 0, "")
		if err != nil {
			return persistence(err)
		}
		reports, err := e.store.ListReportsByContentOwner(ctx, userID)
		if err != nil {
			return persistence(err)
		}

		h := &ViolationHistory{
			User:    user,
			Actions: make([]UserActionView, 0, len(actions)),
			Reports: nonNil(reports),
		}
		users := map[string]*models.User{}
		lookup := func(id string) (*models.User, error) {
			if u, ok := users[id]; ok {
				return u, nil
			}
			u, err := e.optionalUser(ctx, id)
			if err != nil {
				return nil, err
			}
			users[id] = u
			return u, nil
		}
		linked := map[string]*ContentReport{}

		for _, a := range actions {
			view := UserActionView{UserAction: a}
			if view.Admin, err = lookup(a.AdminID); err != nil {
				return err
			}
			if a.RevokedBy != nil {
				if view.Revoker, err = lookup(*a.RevokedBy); err != nil {
					return err
				}
			}
			if a.ReportID != nil {
				if view.Report, err = e.linkedReport(ctx, linked, *a.ReportID); err != nil {
					return err
				}
			}
			h.Actions = append(h.Actions, view)

			if a.IsActive {
				h.Counts.ActiveActions++
				if a.ActionType.IsBan() {
					h.Counts.ActiveBans++
				}
			}
		}
		h.Counts.TotalViolations = len(actions)
		h.Counts.TotalReports = len(h.Reports)

		out = h
		return nil
	})
	return out, err
}

func (e *Engine) linkedReport(ctx context.Context, cache map[string]*ContentReport, id string) (*ContentReport, error) {
	if r, ok := cache[id]; ok {
		return r, nil
	}
	r, err := e.store.GetReport(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		cache[id] = nil
		return nil, nil
	}
	if err != nil {
		return nil, persistence(err)
	}
	cache[id] = r
	return r, nil
}
