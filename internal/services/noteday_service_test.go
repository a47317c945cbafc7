package services

import (
	"testing"
	"time"

	"moneybook/internal/models"
	"moneybook/internal/pagination"
	"moneybook/internal/testutil"
)

func dateMilli(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).UnixMilli()
}

func TestNoteDayAdd(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNoteDayService(db)
		sess := testutil.NewTestSession(t, db)

		start := dateMilli(2026, time.March, 1)
		noteDay, err := svc.Add(sess, NoteDayInput{
			Title:      "Rent due",
			StartDate:  start,
			RepeatType: models.RepeatMonthly,
			Interval:   1,
		})
		testutil.AssertNoError(t, err)

		if noteDay.NextDate != start {
			t.Errorf("next date should start at the start date, got %d", noteDay.NextDate)
		}
		if noteDay.RunCount != 0 {
			t.Errorf("run count should start at 0, got %d", noteDay.RunCount)
		}
	})

	t.Run("repeating_needs_interval", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNoteDayService(db)
		sess := testutil.NewTestSession(t, db)

		_, err := svc.Add(sess, NoteDayInput{
			Title:      "Rent due",
			StartDate:  dateMilli(2026, time.March, 1),
			RepeatType: models.RepeatMonthly,
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_repeat_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNoteDayService(db)
		sess := testutil.NewTestSession(t, db)

		_, err := svc.Add(sess, NoteDayInput{
			Title:      "Rent due",
			StartDate:  dateMilli(2026, time.March, 1),
			RepeatType: models.RepeatType(9),
			Interval:   1,
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestNoteDayQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewNoteDayService(db)
	sess := testutil.NewTestSession(t, db)
	other := testutil.NewTestSession(t, db)

	later, err := svc.Add(sess, NoteDayInput{Title: "later", StartDate: dateMilli(2026, time.June, 1)})
	testutil.AssertNoError(t, err)
	sooner, err := svc.Add(sess, NoteDayInput{Title: "sooner", StartDate: dateMilli(2026, time.April, 1)})
	testutil.AssertNoError(t, err)
	_, err = svc.Add(other, NoteDayInput{Title: "foreign", StartDate: dateMilli(2026, time.May, 1)})
	testutil.AssertNoError(t, err)

	result, err := svc.Query(sess, pagination.PageRequest{})
	testutil.AssertNoError(t, err)

	if len(result.Data) != 2 {
		t.Fatalf("expected 2 note days for the caller, got %d", len(result.Data))
	}
	// Sorted by next occurrence.
	if result.Data[0].ID != sooner.ID || result.Data[1].ID != later.ID {
		t.Error("note days should be ordered by next date")
	}
}

func TestNoteDayUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewNoteDayService(db)
	sess := testutil.NewTestSession(t, db)

	noteDay, err := svc.Add(sess, NoteDayInput{
		Title:      "Rent due",
		StartDate:  dateMilli(2026, time.March, 1),
		RepeatType: models.RepeatMonthly,
		Interval:   1,
	})
	testutil.AssertNoError(t, err)

	_, err = svc.Run(sess, noteDay.ID)
	testutil.AssertNoError(t, err)

	newStart := dateMilli(2026, time.July, 15)
	updated, err := svc.Update(sess, noteDay.ID, NoteDayInput{
		Title:      "Rent",
		StartDate:  newStart,
		RepeatType: models.RepeatMonthly,
		Interval:   2,
	})
	testutil.AssertNoError(t, err)

	if updated.Title != "Rent" {
		t.Errorf("expected title Rent, got %s", updated.Title)
	}
	// Editing the schedule restarts it from the new start date.
	if updated.NextDate != newStart {
		t.Errorf("next date should reset to the start date, got %d", updated.NextDate)
	}
}

func TestNoteDayRun(t *testing.T) {
	t.Run("daily_interval", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNoteDayService(db)
		sess := testutil.NewTestSession(t, db)

		noteDay, err := svc.Add(sess, NoteDayInput{
			Title:      "Water plants",
			StartDate:  dateMilli(2026, time.March, 1),
			RepeatType: models.RepeatDaily,
			Interval:   3,
		})
		testutil.AssertNoError(t, err)

		run, err := svc.Run(sess, noteDay.ID)
		testutil.AssertNoError(t, err)

		if run.NextDate != dateMilli(2026, time.March, 4) {
			t.Errorf("expected next date March 4, got %d", run.NextDate)
		}
		if run.RunCount != 1 {
			t.Errorf("expected run count 1, got %d", run.RunCount)
		}
	})

	t.Run("monthly", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNoteDayService(db)
		sess := testutil.NewTestSession(t, db)

		noteDay, err := svc.Add(sess, NoteDayInput{
			Title:      "Rent due",
			StartDate:  dateMilli(2026, time.January, 31),
			RepeatType: models.RepeatMonthly,
			Interval:   1,
		})
		testutil.AssertNoError(t, err)

		run, err := svc.Run(sess, noteDay.ID)
		testutil.AssertNoError(t, err)

		// AddDate normalizes Jan 31 + 1 month to Mar 3 (2026 is not a leap year).
		if run.NextDate != dateMilli(2026, time.March, 3) {
			t.Errorf("expected normalized next date March 3, got %d", run.NextDate)
		}
	})

	t.Run("yearly", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNoteDayService(db)
		sess := testutil.NewTestSession(t, db)

		noteDay, err := svc.Add(sess, NoteDayInput{
			Title:      "Anniversary",
			StartDate:  dateMilli(2026, time.May, 20),
			RepeatType: models.RepeatYearly,
			Interval:   1,
		})
		testutil.AssertNoError(t, err)

		run, err := svc.Run(sess, noteDay.ID)
		testutil.AssertNoError(t, err)

		if run.NextDate != dateMilli(2027, time.May, 20) {
			t.Errorf("expected next date in 2027, got %d", run.NextDate)
		}
	})

	t.Run("non_repeating", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNoteDayService(db)
		sess := testutil.NewTestSession(t, db)

		noteDay, err := svc.Add(sess, NoteDayInput{
			Title:     "One off",
			StartDate: dateMilli(2026, time.March, 1),
		})
		testutil.AssertNoError(t, err)

		_, err = svc.Run(sess, noteDay.ID)
		testutil.AssertAppError(t, err, "NOTE_DAY_FINISHED")
	})

	t.Run("run_budget_exhausted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNoteDayService(db)
		sess := testutil.NewTestSession(t, db)

		noteDay, err := svc.Add(sess, NoteDayInput{
			Title:      "Two runs only",
			StartDate:  dateMilli(2026, time.March, 1),
			RepeatType: models.RepeatDaily,
			Interval:   1,
			TotalCount: 2,
		})
		testutil.AssertNoError(t, err)

		for i := 0; i < 2; i++ {
			_, err = svc.Run(sess, noteDay.ID)
			testutil.AssertNoError(t, err)
		}
		_, err = svc.Run(sess, noteDay.ID)
		testutil.AssertAppError(t, err, "NOTE_DAY_FINISHED")
	})

	t.Run("past_end_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNoteDayService(db)
		sess := testutil.NewTestSession(t, db)

		noteDay, err := svc.Add(sess, NoteDayInput{
			Title:      "Short series",
			StartDate:  dateMilli(2026, time.March, 1),
			EndDate:    dateMilli(2026, time.March, 2),
			RepeatType: models.RepeatDaily,
			Interval:   5,
		})
		testutil.AssertNoError(t, err)

		_, err = svc.Run(sess, noteDay.ID)
		testutil.AssertAppError(t, err, "NOTE_DAY_FINISHED")
	})
}

func TestNoteDayRemove(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewNoteDayService(db)
	sess := testutil.NewTestSession(t, db)
	other := testutil.NewTestSession(t, db)

	noteDay, err := svc.Add(sess, NoteDayInput{Title: "X", StartDate: dateMilli(2026, time.March, 1)})
	testutil.AssertNoError(t, err)

	// Another user cannot touch it.
	err = svc.Remove(other, noteDay.ID)
	testutil.AssertAppError(t, err, "ITEM_NOT_FOUND")

	err = svc.Remove(sess, noteDay.ID)
	testutil.AssertNoError(t, err)

	var count int64
	db.Model(&models.NoteDay{}).Where("id = ?", noteDay.ID).Count(&count)
	if count != 0 {
		t.Error("note day should be deleted")
	}
}
