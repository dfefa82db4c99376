package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
	"github.com/example/studio-scheduler/internal/testfixtures"
)

var adminPrincipal = Principal{UserID: "admin-1", Role: persistence.RoleAdmin}

func ptr(value string) *string { return &value }

// newEventHarness builds a store seeded with one group, one trainer, and one
// room, plus a service wired with a deterministic clock and ID sequence.
func newEventHarness(t *testing.T, now time.Time) (*EventService, *testfixtures.MemStore) {
	t.Helper()

	store := testfixtures.NewMemStore()
	store.Seed(
		testfixtures.NewGroup(testfixtures.WithGroupID("group-1"), testfixtures.WithGroupName("Ballet Beginners")),
		testfixtures.NewUser(testfixtures.WithUserID("trainer-1")),
		testfixtures.NewUser(testfixtures.WithUserID("trainer-2")),
		testfixtures.NewRoom(testfixtures.WithRoomID("room-1")),
	)

	clock := testfixtures.NewClock(now)
	ids := testfixtures.NewIDGenerator("event")
	reconciler := NewStatusReconciler(store, clock.NowFunc(), nil)
	service := NewEventService(store, reconciler, ids.NextFunc(), clock.NowFunc(), nil)
	return service, store
}

func validEventInput() EventInput {
	return EventInput{
		Date:      "2025-03-10",
		StartTime: "10:00",
		EndTime:   "11:00",
		GroupID:   "group-1",
		TrainerID: "trainer-1",
		RoomID:    ptr("room-1"),
	}
}

func TestEventService_CreateEvent(t *testing.T) {
	t.Parallel()

	now := testfixtures.ReferenceTime()

	t.Run("persists a valid event", func(t *testing.T) {
		t.Parallel()

		service, store := newEventHarness(t, now)
		created, err := service.CreateEvent(context.Background(), adminPrincipal, validEventInput())
		if err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		if created.ID == "" {
			t.Fatal("expected a generated event ID")
		}
		if created.Status != persistence.EventScheduled {
			t.Fatalf("expected scheduled status, got %s", created.Status)
		}

		stored, err := store.Events().GetEvent(context.Background(), created.ID)
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		if stored.RoomID == nil || *stored.RoomID != "room-1" {
			t.Fatalf("expected room-1, got %v", stored.RoomID)
		}
	})

	t.Run("rejects non-admin principals", func(t *testing.T) {
		t.Parallel()

		service, _ := newEventHarness(t, now)
		trainer := Principal{UserID: "trainer-1", Role: persistence.RoleTrainer}
		if _, err := service.CreateEvent(context.Background(), trainer, validEventInput()); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("collects field validation errors", func(t *testing.T) {
		t.Parallel()

		service, _ := newEventHarness(t, now)
		input := validEventInput()
		input.Date = "10.03.2025"
		input.EndTime = "09:00"
		input.GroupID = ""

		_, err := service.CreateEvent(context.Background(), adminPrincipal, input)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"date", "end_time", "group_id"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected error for %s, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects unknown references", func(t *testing.T) {
		t.Parallel()

		service, _ := newEventHarness(t, now)
		input := validEventInput()
		input.TrainerID = "trainer-missing"
		input.RoomID = ptr("room-missing")

		_, err := service.CreateEvent(context.Background(), adminPrincipal, input)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["trainer_id"]; !ok {
			t.Fatalf("expected trainer_id error, got %v", vErr.FieldErrors)
		}
		if _, ok := vErr.FieldErrors["room_id"]; !ok {
			t.Fatalf("expected room_id error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("refuses a booked room slot", func(t *testing.T) {
		t.Parallel()

		service, store := newEventHarness(t, now)
		store.Seed(testfixtures.NewEvent(
			testfixtures.WithEventID("blocking"),
			testfixtures.OnDate("2025-03-10"),
			testfixtures.Between("10:30", "11:30"),
			testfixtures.InRoom("room-1"),
			testfixtures.ForGroup("group-1"),
			testfixtures.WithTrainer("trainer-2"),
		))

		_, err := service.CreateEvent(context.Background(), adminPrincipal, validEventInput())
		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if cErr.BlockingID != "blocking" {
			t.Fatalf("expected blocking event ID, got %s", cErr.BlockingID)
		}
		if cErr.BlockingStatus != string(persistence.EventScheduled) {
			t.Fatalf("expected blocking status %q, got %q", persistence.EventScheduled, cErr.BlockingStatus)
		}
	})

	t.Run("allows adjacent slots and cancelled occupants", func(t *testing.T) {
		t.Parallel()

		service, store := newEventHarness(t, now)
		store.Seed(
			testfixtures.NewEvent(
				testfixtures.WithEventID("before"),
				testfixtures.OnDate("2025-03-10"),
				testfixtures.Between("09:00", "10:00"),
				testfixtures.InRoom("room-1"),
				testfixtures.ForGroup("group-1"),
			),
			testfixtures.NewEvent(
				testfixtures.WithEventID("cancelled"),
				testfixtures.OnDate("2025-03-10"),
				testfixtures.Between("10:00", "11:00"),
				testfixtures.InRoom("room-1"),
				testfixtures.ForGroup("group-1"),
				testfixtures.WithStatus(persistence.EventCancelled),
			),
		)

		if _, err := service.CreateEvent(context.Background(), adminPrincipal, validEventInput()); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
	})

	t.Run("events without a room are never gated", func(t *testing.T) {
		t.Parallel()

		service, _ := newEventHarness(t, now)
		input := validEventInput()
		input.RoomID = nil

		first, err := service.CreateEvent(context.Background(), adminPrincipal, input)
		if err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		second, err := service.CreateEvent(context.Background(), adminPrincipal, input)
		if err != nil {
			t.Fatalf("expected roomless double booking to succeed, got %v", err)
		}
		if first.ID == second.ID {
			t.Fatal("expected distinct event IDs")
		}
	})
}

func TestEventService_UpdateEvent(t *testing.T) {
	t.Parallel()

	now := testfixtures.ReferenceTime()

	t.Run("applies changes to a scheduled event", func(t *testing.T) {
		t.Parallel()

		service, store := newEventHarness(t, now)
		store.Seed(testfixtures.NewEvent(
			testfixtures.WithEventID("event-a"),
			testfixtures.OnDate("2025-03-10"),
			testfixtures.Between("10:00", "11:00"),
			testfixtures.ForGroup("group-1"),
			testfixtures.WithTrainer("trainer-1"),
		))

		input := validEventInput()
		input.StartTime = "14:00"
		input.EndTime = "15:00"

		updated, err := service.UpdateEvent(context.Background(), adminPrincipal, "event-a", input)
		if err != nil {
			t.Fatalf("UpdateEvent failed: %v", err)
		}
		if updated.StartTime != "14:00" || updated.EndTime != "15:00" {
			t.Fatalf("unexpected times: %s-%s", updated.StartTime, updated.EndTime)
		}
	})

	t.Run("changing the trainer clears substitution marks", func(t *testing.T) {
		t.Parallel()

		service, store := newEventHarness(t, now)
		store.Seed(testfixtures.NewEvent(
			testfixtures.WithEventID("event-a"),
			testfixtures.OnDate("2025-03-10"),
			testfixtures.ForGroup("group-1"),
			testfixtures.WithTrainer("trainer-1"),
			testfixtures.Substituted("trainer-2", now),
		))

		input := validEventInput()
		input.TrainerID = "trainer-2"

		updated, err := service.UpdateEvent(context.Background(), adminPrincipal, "event-a", input)
		if err != nil {
			t.Fatalf("UpdateEvent failed: %v", err)
		}
		if updated.IsSubstitution || updated.OriginalTrainerID != nil || updated.SubstitutedAt != nil {
			t.Fatalf("expected substitution marks to be cleared, got %+v", updated)
		}
	})

	t.Run("rejects edits to completed events", func(t *testing.T) {
		t.Parallel()

		service, store := newEventHarness(t, now)
		store.Seed(testfixtures.NewEvent(
			testfixtures.WithEventID("event-a"),
			testfixtures.ForGroup("group-1"),
			testfixtures.WithStatus(persistence.EventCompleted),
		))

		_, err := service.UpdateEvent(context.Background(), adminPrincipal, "event-a", validEventInput())
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["status"]; !ok {
			t.Fatalf("expected status error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("re-checks conflicts against the new slot", func(t *testing.T) {
		t.Parallel()

		service, store := newEventHarness(t, now)
		store.Seed(
			testfixtures.NewEvent(
				testfixtures.WithEventID("event-a"),
				testfixtures.OnDate("2025-03-10"),
				testfixtures.Between("09:00", "10:00"),
				testfixtures.InRoom("room-1"),
				testfixtures.ForGroup("group-1"),
			),
			testfixtures.NewEvent(
				testfixtures.WithEventID("event-b"),
				testfixtures.OnDate("2025-03-10"),
				testfixtures.Between("10:30", "11:30"),
				testfixtures.InRoom("room-1"),
				testfixtures.ForGroup("group-1"),
			),
		)

		_, err := service.UpdateEvent(context.Background(), adminPrincipal, "event-a", validEventInput())
		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if cErr.BlockingID != "event-b" {
			t.Fatalf("expected event-b to block, got %s", cErr.BlockingID)
		}
	})

	t.Run("unknown event maps to not found", func(t *testing.T) {
		t.Parallel()

		service, _ := newEventHarness(t, now)
		if _, err := service.UpdateEvent(context.Background(), adminPrincipal, "missing", validEventInput()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestEventService_CancelEvent(t *testing.T) {
	t.Parallel()

	now := testfixtures.ReferenceTime()

	t.Run("cancels a scheduled event", func(t *testing.T) {
		t.Parallel()

		service, store := newEventHarness(t, now)
		store.Seed(testfixtures.NewEvent(testfixtures.WithEventID("event-a"), testfixtures.ForGroup("group-1")))

		cancelled, err := service.CancelEvent(context.Background(), adminPrincipal, "event-a")
		if err != nil {
			t.Fatalf("CancelEvent failed: %v", err)
		}
		if cancelled.Status != persistence.EventCancelled {
			t.Fatalf("expected cancelled, got %s", cancelled.Status)
		}
	})

	t.Run("cancelling twice stays successful", func(t *testing.T) {
		t.Parallel()

		service, store := newEventHarness(t, now)
		store.Seed(testfixtures.NewEvent(
			testfixtures.WithEventID("event-a"),
			testfixtures.ForGroup("group-1"),
			testfixtures.WithStatus(persistence.EventCancelled),
		))

		cancelled, err := service.CancelEvent(context.Background(), adminPrincipal, "event-a")
		if err != nil {
			t.Fatalf("expected idempotent cancel, got %v", err)
		}
		if cancelled.Status != persistence.EventCancelled {
			t.Fatalf("expected cancelled, got %s", cancelled.Status)
		}
	})

	t.Run("completed events cannot be cancelled", func(t *testing.T) {
		t.Parallel()

		service, store := newEventHarness(t, now)
		store.Seed(testfixtures.NewEvent(
			testfixtures.WithEventID("event-a"),
			testfixtures.ForGroup("group-1"),
			testfixtures.WithStatus(persistence.EventCompleted),
		))

		_, err := service.CancelEvent(context.Background(), adminPrincipal, "event-a")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestEventService_ListEvents(t *testing.T) {
	t.Parallel()

	// The clock sits mid-day so the morning event has elapsed.
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	service, store := newEventHarness(t, now)
	store.Seed(
		testfixtures.NewEvent(
			testfixtures.WithEventID("morning"),
			testfixtures.OnDate("2025-03-10"),
			testfixtures.Between("09:00", "10:00"),
			testfixtures.ForGroup("group-1"),
			testfixtures.WithTrainer("trainer-1"),
		),
		testfixtures.NewEvent(
			testfixtures.WithEventID("evening-a"),
			testfixtures.OnDate("2025-03-10"),
			testfixtures.Between("18:00", "19:00"),
			testfixtures.InRoom("room-1"),
			testfixtures.ForGroup("group-1"),
			testfixtures.WithTrainer("trainer-1"),
		),
		testfixtures.NewEvent(
			testfixtures.WithEventID("evening-b"),
			testfixtures.OnDate("2025-03-10"),
			testfixtures.Between("18:30", "19:30"),
			testfixtures.InRoom("room-1"),
			testfixtures.ForGroup("group-1"),
			testfixtures.WithTrainer("trainer-2"),
		),
	)

	result, err := service.ListEvents(context.Background(), adminPrincipal, ListEventsParams{
		DateFrom: ptr("2025-03-10"),
		DateTo:   ptr("2025-03-10"),
	})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}

	if len(result.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(result.Events))
	}
	if result.Events[0].ID != "morning" || result.Events[0].Status != persistence.EventCompleted {
		t.Fatalf("expected elapsed morning event to be completed, got %s %s", result.Events[0].ID, result.Events[0].Status)
	}
	if result.Events[0].GroupName != "Ballet Beginners" {
		t.Fatalf("expected joined group name, got %q", result.Events[0].GroupName)
	}

	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 overlap warning, got %d", len(result.Warnings))
	}
	warning := result.Warnings[0]
	if warning.EventID != "evening-a" || warning.OtherEventID != "evening-b" {
		t.Fatalf("unexpected warning pair: %+v", warning)
	}
	if warning.RoomID != "room-1" || warning.Date != "2025-03-10" {
		t.Fatalf("unexpected warning location: %+v", warning)
	}

	t.Run("serves repeated listings from the warning cache", func(t *testing.T) {
		again, err := service.ListEvents(context.Background(), adminPrincipal, ListEventsParams{
			DateFrom: ptr("2025-03-10"),
			DateTo:   ptr("2025-03-10"),
		})
		if err != nil {
			t.Fatalf("ListEvents failed: %v", err)
		}
		if len(again.Warnings) != 1 {
			t.Fatalf("expected cached warning, got %d", len(again.Warnings))
		}
	})
}

func TestEventService_GetEvent(t *testing.T) {
	t.Parallel()

	now := testfixtures.ReferenceTime()
	service, store := newEventHarness(t, now)
	store.Seed(testfixtures.NewEvent(
		testfixtures.WithEventID("event-a"),
		testfixtures.OnDate("2025-03-10"),
		testfixtures.InRoom("room-1"),
		testfixtures.ForGroup("group-1"),
		testfixtures.WithTrainer("trainer-1"),
	))

	detail, err := service.GetEvent(context.Background(), adminPrincipal, "event-a")
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if detail.GroupName != "Ballet Beginners" {
		t.Fatalf("expected joined group name, got %q", detail.GroupName)
	}
	if detail.RoomName == nil {
		t.Fatal("expected joined room name")
	}

	if _, err := service.GetEvent(context.Background(), adminPrincipal, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
