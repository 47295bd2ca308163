package schedule

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/medly/medly-api/internal/interval"
	"github.com/medly/medly-api/internal/model"
)

// DefaultScheduleResult reports how many windows a default-schedule run
// actually wrote; reruns over the same range skip existing rows.
type DefaultScheduleResult struct {
	Doctors   int `json:"doctors"`
	Available int `json:"available"`
	OOO       int `json:"ooo"`
}

var (
	workStart = interval.ClockTime{Hour: 8}
	workEnd   = interval.ClockTime{Hour: 17}
	dayEnd    = interval.ClockTime{Hour: 24}
)

// SeedDefaultSchedule gives every doctor a Monday-to-Saturday 08:00-17:00
// availability for the given number of weeks starting today. With fillOOO the
// remainder of each working day and all of Sunday are written as
// out-of-office windows. Idempotent: exact duplicates are skipped.
func (s *Service) SeedDefaultSchedule(ctx context.Context, weeks int, fillOOO bool) (*DefaultScheduleResult, error) {
	if weeks <= 0 {
		weeks = 1
	}
	doctors, err := s.doctors.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	totalDays := weeks * 7

	result := &DefaultScheduleResult{Doctors: len(doctors)}
	if len(doctors) == 0 {
		return result, nil
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, doc := range doctors {
			for i := 0; i < totalDays; i++ {
				day := today.AddDate(0, 0, i)
				if day.Weekday() == time.Sunday {
					if fillOOO {
						n, err := s.insertWindow(ctx, tx, doc.ID, model.WindowOOO,
							interval.Interval{Start: day, End: dayEnd.On(day)})
						if err != nil {
							return err
						}
						result.OOO += n
					}
					continue
				}
				n, err := s.insertWindow(ctx, tx, doc.ID, model.WindowAvailable,
					interval.Interval{Start: workStart.On(day), End: workEnd.On(day)})
				if err != nil {
					return err
				}
				result.Available += n
				if fillOOO {
					for _, iv := range []interval.Interval{
						{Start: day, End: workStart.On(day)},
						{Start: workEnd.On(day), End: dayEnd.On(day)},
					} {
						n, err := s.insertWindow(ctx, tx, doc.ID, model.WindowOOO, iv)
						if err != nil {
							return err
						}
						result.OOO += n
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("doctors", result.Doctors).
		Int("weeks", weeks).
		Int("available", result.Available).
		Int("ooo", result.OOO).
		Msg("default schedule seeded")
	return result, nil
}
