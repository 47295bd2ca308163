package schedule

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/medly/medly-api/internal/interval"
	"github.com/medly/medly-api/internal/model"
	apperrors "github.com/medly/medly-api/pkg/errors"
)

const windowTimeLayout = "2006-01-02T15:04:05"

// UpsertWindow stores a single schedule window. An exact duplicate is
// reported as skipped rather than an error; an out-of-office window that
// overlaps declared available time is rejected so OOO carve-outs go through
// the bulk adjuster, which subtracts instead of stacking.
func (s *Service) UpsertWindow(ctx context.Context, req *model.UpsertWindowRequest) (*model.UpsertWindowResult, error) {
	kind := model.WindowKind(req.Kind)
	if !kind.Valid() {
		return nil, apperrors.Validationf("invalid window kind: %s", req.Kind)
	}
	start, err := parseWindowTime(req.Start)
	if err != nil {
		return nil, apperrors.Validationf("invalid start time: %s", req.Start)
	}
	end, err := parseWindowTime(req.End)
	if err != nil {
		return nil, apperrors.Validationf("invalid end time: %s", req.End)
	}
	if !start.Before(end) {
		return nil, apperrors.Validation("window start must be before end")
	}

	var result model.UpsertWindowResult
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		id, found, err := s.windows.FindExact(ctx, tx, req.DoctorID, kind, start, end)
		if err != nil {
			return err
		}
		if found {
			result = model.UpsertWindowResult{ID: id, Skipped: true}
			return nil
		}
		if kind == model.WindowOOO {
			overlaps, err := s.windows.HasOverlapping(ctx, tx, req.DoctorID, model.WindowAvailable, start, end)
			if err != nil {
				return err
			}
			if overlaps {
				return apperrors.Conflict("out-of-office window overlaps declared available time")
			}
		}
		w := &model.ScheduleWindow{DoctorID: req.DoctorID, Start: start, End: end, Kind: kind}
		if err := s.windows.Create(ctx, tx, w); err != nil {
			return err
		}
		result = model.UpsertWindowResult{ID: w.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) DeleteWindow(ctx context.Context, id int64) error {
	return s.windows.Delete(ctx, id)
}

// bulkRule is a parsed daily rule; End may be the 24:00 sentinel, which
// anchors to the next midnight.
type bulkRule struct {
	start, end interval.ClockTime
}

// BulkAdjust rewrites a doctor set's windows over a date range from daily
// HH:MM rules. All rules are validated before the first write; the whole
// adjustment runs in one transaction. Per doctor and day, available rules are
// merged, OOO rules are subtracted from them, and with overwrite (the
// default) every window touching the day is deleted first.
func (s *Service) BulkAdjust(ctx context.Context, req *model.BulkAdjustRequest) (*model.BulkAdjustResult, error) {
	scope := model.ScopeKind(req.ScopeKind)
	if !scope.Valid() {
		return nil, apperrors.Validationf("invalid scope kind: %s", req.ScopeKind)
	}
	dayStart, err := parseDate(req.DateStart)
	if err != nil {
		return nil, apperrors.Validationf("invalid dateStart: %s", req.DateStart)
	}
	dayEnd, err := parseDate(req.DateEnd)
	if err != nil {
		return nil, apperrors.Validationf("invalid dateEnd: %s", req.DateEnd)
	}
	if dayEnd.Before(dayStart) {
		return nil, apperrors.Validation("dateEnd must not precede dateStart")
	}

	availRules, err := parseRules(req.Available)
	if err != nil {
		return nil, err
	}
	oooRules, err := parseRules(req.OOO)
	if err != nil {
		return nil, err
	}

	overwrite := true
	if req.Overwrite != nil {
		overwrite = *req.Overwrite
	}

	doctors, err := s.resolveDoctors(ctx, scope, req.ScopeID)
	if err != nil {
		return nil, err
	}

	days := 0
	for d := dayStart; !d.After(dayEnd); d = d.AddDate(0, 0, 1) {
		days++
	}
	result := &model.BulkAdjustResult{Doctors: len(doctors), Days: days}
	if len(doctors) == 0 {
		return result, nil
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, doc := range doctors {
			for d := dayStart; !d.After(dayEnd); d = d.AddDate(0, 0, 1) {
				inserted, deleted, err := s.adjustDay(ctx, tx, doc.ID, d, availRules, oooRules, overwrite)
				if err != nil {
					return err
				}
				result.Inserted += inserted
				result.Deleted += deleted
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("scope", string(scope)).
		Int64("scope_id", req.ScopeID).
		Int("doctors", result.Doctors).
		Int("days", result.Days).
		Int("inserted", result.Inserted).
		Int("deleted", result.Deleted).
		Msg("bulk schedule adjustment applied")
	return result, nil
}

// adjustDay materializes the rules on one calendar day and writes the
// normalized windows.
func (s *Service) adjustDay(ctx context.Context, tx *sqlx.Tx, doctorID int64, day time.Time, availRules, oooRules []bulkRule, overwrite bool) (inserted, deleted int, err error) {
	avail := make([]interval.Interval, 0, len(availRules))
	for _, r := range availRules {
		avail = append(avail, interval.Interval{Start: r.start.On(day), End: r.end.On(day)})
	}
	ooo := make([]interval.Interval, 0, len(oooRules))
	for _, r := range oooRules {
		ooo = append(ooo, interval.Interval{Start: r.start.On(day), End: r.end.On(day)})
	}

	finalAvail := interval.Subtract(avail, ooo)
	finalOOO := interval.Merge(ooo)

	if overwrite {
		nextDay := day.AddDate(0, 0, 1)
		deleted, err = s.windows.DeleteOverlapping(ctx, tx, doctorID, day, nextDay)
		if err != nil {
			return 0, 0, err
		}
	}

	for _, iv := range finalAvail {
		n, err := s.insertWindow(ctx, tx, doctorID, model.WindowAvailable, iv)
		if err != nil {
			return 0, 0, err
		}
		inserted += n
	}
	for _, iv := range finalOOO {
		n, err := s.insertWindow(ctx, tx, doctorID, model.WindowOOO, iv)
		if err != nil {
			return 0, 0, err
		}
		inserted += n
	}
	return inserted, deleted, nil
}

func (s *Service) insertWindow(ctx context.Context, tx *sqlx.Tx, doctorID int64, kind model.WindowKind, iv interval.Interval) (int, error) {
	_, found, err := s.windows.FindExact(ctx, tx, doctorID, kind, iv.Start, iv.End)
	if err != nil {
		return 0, err
	}
	if found {
		return 0, nil
	}
	w := &model.ScheduleWindow{DoctorID: doctorID, Start: iv.Start, End: iv.End, Kind: kind}
	if err := s.windows.Create(ctx, tx, w); err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *Service) resolveDoctors(ctx context.Context, scope model.ScopeKind, scopeID int64) ([]*model.Doctor, error) {
	switch scope {
	case model.ScopeDoctor:
		doc, err := s.doctors.Get(ctx, scopeID)
		if err != nil {
			if apperrors.CodeOf(err) == apperrors.ErrNotFound {
				return nil, nil
			}
			return nil, err
		}
		return []*model.Doctor{doc}, nil
	case model.ScopeDepartment:
		return s.doctors.ListByDepartments(ctx, []int64{scopeID})
	case model.ScopeHospital:
		return s.doctors.ListByHospital(ctx, scopeID)
	default:
		return nil, apperrors.Validationf("invalid scope kind: %s", scope)
	}
}

func parseRules(rules []model.BulkRule) ([]bulkRule, error) {
	parsed := make([]bulkRule, 0, len(rules))
	for _, r := range rules {
		start, err := interval.ParseClock(r.Start)
		if err != nil {
			return nil, apperrors.Validationf("invalid rule start %q", r.Start)
		}
		end, err := interval.ParseClock(r.End)
		if err != nil {
			return nil, apperrors.Validationf("invalid rule end %q", r.End)
		}
		if end.MinuteOfDay() <= start.MinuteOfDay() {
			return nil, apperrors.Validationf("rule %s-%s is empty or inverted", r.Start, r.End)
		}
		parsed = append(parsed, bulkRule{start: start, end: end})
	}
	return parsed, nil
}

func parseWindowTime(s string) (time.Time, error) {
	for _, layout := range []string{windowTimeLayout, "2006-01-02T15:04", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local), nil
		}
	}
	return time.Time{}, apperrors.Validationf("unrecognized time %q", s)
}
