package application

import (
	"context"
	"testing"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
	"github.com/example/studio-scheduler/internal/testfixtures"
)

func TestIsElapsed(t *testing.T) {
	t.Parallel()

	reference := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		date    string
		endTime string
		want    bool
	}{
		{name: "past day is elapsed regardless of time", date: "2025-03-02", endTime: "23:00", want: true},
		{name: "future day is never elapsed", date: "2025-03-04", endTime: "00:30", want: false},
		{name: "today with end before now is elapsed", date: "2025-03-03", endTime: "11:00", want: true},
		{name: "today with end at now is elapsed", date: "2025-03-03", endTime: "12:00", want: true},
		{name: "today with end after now is not elapsed", date: "2025-03-03", endTime: "12:01", want: false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := IsElapsed(tc.date, tc.endTime, reference)
			if err != nil {
				t.Fatalf("IsElapsed failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("IsElapsed(%s, %s) = %v, want %v", tc.date, tc.endTime, got, tc.want)
			}
		})
	}

	t.Run("rejects malformed inputs", func(t *testing.T) {
		t.Parallel()

		if _, err := IsElapsed("03/03/2025", "11:00", reference); err == nil {
			t.Fatal("expected error for malformed date")
		}
		if _, err := IsElapsed("2025-03-03", "11h00", reference); err == nil {
			t.Fatal("expected error for malformed time")
		}
	})
}

func TestStatusReconciler_Reconcile(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)
	store := testfixtures.NewMemStore()
	store.Seed(
		testfixtures.NewEvent(testfixtures.WithEventID("past"), testfixtures.OnDate("2025-03-02")),
		testfixtures.NewEvent(testfixtures.WithEventID("ended"), testfixtures.OnDate("2025-03-03"), testfixtures.Between("10:00", "11:00")),
		testfixtures.NewEvent(testfixtures.WithEventID("running"), testfixtures.OnDate("2025-03-03"), testfixtures.Between("11:30", "12:30")),
		testfixtures.NewEvent(testfixtures.WithEventID("future"), testfixtures.OnDate("2025-03-04")),
		testfixtures.NewEvent(testfixtures.WithEventID("called-off"), testfixtures.OnDate("2025-03-02"), testfixtures.WithStatus(persistence.EventCancelled)),
	)

	reconciler := NewStatusReconciler(store, func() time.Time { return now }, nil)

	changed, err := reconciler.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if changed != 2 {
		t.Fatalf("expected 2 completed events, got %d", changed)
	}

	want := map[string]persistence.EventStatus{
		"past":       persistence.EventCompleted,
		"ended":      persistence.EventCompleted,
		"running":    persistence.EventScheduled,
		"future":     persistence.EventScheduled,
		"called-off": persistence.EventCancelled,
	}
	for id, status := range want {
		event, err := store.Events().GetEvent(context.Background(), id)
		if err != nil {
			t.Fatalf("GetEvent(%s) failed: %v", id, err)
		}
		if event.Status != status {
			t.Fatalf("event %s status = %s, want %s", id, event.Status, status)
		}
	}

	t.Run("second run is a no-op", func(t *testing.T) {
		changed, err := reconciler.Reconcile(context.Background())
		if err != nil {
			t.Fatalf("Reconcile failed: %v", err)
		}
		if changed != 0 {
			t.Fatalf("expected no further changes, got %d", changed)
		}
	})
}
