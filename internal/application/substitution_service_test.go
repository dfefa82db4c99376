package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
	"github.com/example/studio-scheduler/internal/testfixtures"
)

func validSubstitutionInput() SubstitutionInput {
	return SubstitutionInput{
		AbsentTrainerID:     "trainer-1",
		SubstituteTrainerID: "trainer-2",
		DateFrom:            "2025-03-10",
		DateTo:              "2025-03-14",
	}
}

func newSubstitutionHarness(t *testing.T, now time.Time) (*SubstitutionService, *testfixtures.MemStore) {
	t.Helper()

	store := testfixtures.NewMemStore()
	store.Seed(
		testfixtures.NewUser(testfixtures.WithUserID("trainer-1")),
		testfixtures.NewUser(testfixtures.WithUserID("trainer-2")),
	)
	clock := testfixtures.NewClock(now)
	return NewSubstitutionService(store, clock.NowFunc(), nil), store
}

func TestSubstitutionService_Substitute(t *testing.T) {
	t.Parallel()

	now := testfixtures.ReferenceTime()

	t.Run("reassigns exactly the eligible events", func(t *testing.T) {
		t.Parallel()

		service, store := newSubstitutionHarness(t, now)
		store.Seed(
			testfixtures.NewEvent(testfixtures.WithEventID("in-window"), testfixtures.OnDate("2025-03-10"), testfixtures.WithTrainer("trainer-1")),
			testfixtures.NewEvent(testfixtures.WithEventID("window-edge"), testfixtures.OnDate("2025-03-14"), testfixtures.WithTrainer("trainer-1")),
			testfixtures.NewEvent(testfixtures.WithEventID("before-window"), testfixtures.OnDate("2025-03-09"), testfixtures.WithTrainer("trainer-1")),
			testfixtures.NewEvent(testfixtures.WithEventID("after-window"), testfixtures.OnDate("2025-03-15"), testfixtures.WithTrainer("trainer-1")),
			testfixtures.NewEvent(testfixtures.WithEventID("other-trainer"), testfixtures.OnDate("2025-03-11"), testfixtures.WithTrainer("trainer-2")),
			testfixtures.NewEvent(testfixtures.WithEventID("already-held"), testfixtures.OnDate("2025-03-10"), testfixtures.WithTrainer("trainer-1"), testfixtures.WithStatus(persistence.EventCompleted)),
			testfixtures.NewEvent(testfixtures.WithEventID("cancelled"), testfixtures.OnDate("2025-03-11"), testfixtures.WithTrainer("trainer-1"), testfixtures.WithStatus(persistence.EventCancelled)),
			testfixtures.NewEvent(testfixtures.WithEventID("already-covered"), testfixtures.OnDate("2025-03-12"), testfixtures.WithTrainer("trainer-1"), testfixtures.Substituted("trainer-3", now)),
		)

		result, err := service.Substitute(context.Background(), adminPrincipal, validSubstitutionInput())
		if err != nil {
			t.Fatalf("Substitute failed: %v", err)
		}
		if result.UpdatedCount != 3 {
			t.Fatalf("expected 3 reassignments, got %d", result.UpdatedCount)
		}
		if len(result.UpdatedEvents) != int(result.UpdatedCount) {
			t.Fatalf("expected %d updated events, got %d", result.UpdatedCount, len(result.UpdatedEvents))
		}
		for _, detail := range result.UpdatedEvents {
			if detail.TrainerID != "trainer-2" {
				t.Fatalf("updated event %s trainer = %s, want trainer-2", detail.ID, detail.TrainerID)
			}
			if !detail.IsSubstitution {
				t.Fatalf("updated event %s missing substitution mark", detail.ID)
			}
			if detail.TrainerName == "" {
				t.Fatalf("updated event %s missing trainer name", detail.ID)
			}
		}

		for _, id := range []string{"in-window", "window-edge", "already-held"} {
			event, err := store.Events().GetEvent(context.Background(), id)
			if err != nil {
				t.Fatalf("GetEvent(%s) failed: %v", id, err)
			}
			if event.TrainerID != "trainer-2" {
				t.Fatalf("event %s trainer = %s, want trainer-2", id, event.TrainerID)
			}
			if !event.IsSubstitution {
				t.Fatalf("event %s missing substitution mark", id)
			}
			if event.OriginalTrainerID == nil || *event.OriginalTrainerID != "trainer-1" {
				t.Fatalf("event %s original trainer = %v, want trainer-1", id, event.OriginalTrainerID)
			}
			if event.SubstitutedAt == nil || !event.SubstitutedAt.Equal(now) {
				t.Fatalf("event %s substituted at = %v, want %v", id, event.SubstitutedAt, now)
			}
		}

		for _, id := range []string{"before-window", "after-window", "other-trainer", "cancelled"} {
			event, err := store.Events().GetEvent(context.Background(), id)
			if err != nil {
				t.Fatalf("GetEvent(%s) failed: %v", id, err)
			}
			if event.IsSubstitution && id != "already-covered" {
				t.Fatalf("event %s should not have been reassigned", id)
			}
		}

		covered, err := store.Events().GetEvent(context.Background(), "already-covered")
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		if covered.OriginalTrainerID == nil || *covered.OriginalTrainerID != "trainer-3" {
			t.Fatalf("expected existing substitution to be preserved, got %v", covered.OriginalTrainerID)
		}
	})

	t.Run("an omitted window end covers the start date alone", func(t *testing.T) {
		t.Parallel()

		service, store := newSubstitutionHarness(t, now)
		store.Seed(
			testfixtures.NewEvent(testfixtures.WithEventID("single-day"), testfixtures.OnDate("2025-03-10"), testfixtures.WithTrainer("trainer-1")),
			testfixtures.NewEvent(testfixtures.WithEventID("next-day"), testfixtures.OnDate("2025-03-11"), testfixtures.WithTrainer("trainer-1")),
		)

		input := validSubstitutionInput()
		input.DateTo = ""

		result, err := service.Substitute(context.Background(), adminPrincipal, input)
		if err != nil {
			t.Fatalf("Substitute failed: %v", err)
		}
		if result.UpdatedCount != 1 {
			t.Fatalf("expected 1 reassignment, got %d", result.UpdatedCount)
		}

		next, err := store.Events().GetEvent(context.Background(), "next-day")
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		if next.TrainerID != "trainer-1" {
			t.Fatalf("event outside the single-day window was reassigned to %s", next.TrainerID)
		}
	})

	t.Run("an empty window succeeds with a zero count", func(t *testing.T) {
		t.Parallel()

		service, _ := newSubstitutionHarness(t, now)
		result, err := service.Substitute(context.Background(), adminPrincipal, validSubstitutionInput())
		if err != nil {
			t.Fatalf("Substitute failed: %v", err)
		}
		if result.UpdatedCount != 0 {
			t.Fatalf("expected zero count, got %d", result.UpdatedCount)
		}
		if result.AbsentTrainerName == "" || result.SubstituteTrainerName == "" {
			t.Fatalf("expected trainer names in result, got %+v", result)
		}
		if len(result.UpdatedEvents) != 0 {
			t.Fatalf("expected no updated events, got %d", len(result.UpdatedEvents))
		}
	})

	t.Run("rejects non-admin principals", func(t *testing.T) {
		t.Parallel()

		service, _ := newSubstitutionHarness(t, now)
		trainer := Principal{UserID: "trainer-1", Role: persistence.RoleTrainer}
		if _, err := service.Substitute(context.Background(), trainer, validSubstitutionInput()); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects a substitute identical to the absent trainer", func(t *testing.T) {
		t.Parallel()

		service, _ := newSubstitutionHarness(t, now)
		input := validSubstitutionInput()
		input.SubstituteTrainerID = input.AbsentTrainerID

		_, err := service.Substitute(context.Background(), adminPrincipal, input)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["substitute_trainer_id"]; !ok {
			t.Fatalf("expected substitute_trainer_id error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("rejects an inverted window", func(t *testing.T) {
		t.Parallel()

		service, _ := newSubstitutionHarness(t, now)
		input := validSubstitutionInput()
		input.DateFrom = "2025-03-14"
		input.DateTo = "2025-03-10"

		_, err := service.Substitute(context.Background(), adminPrincipal, input)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["date_to"]; !ok {
			t.Fatalf("expected date_to error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("rejects unknown trainers as field errors", func(t *testing.T) {
		t.Parallel()

		service, _ := newSubstitutionHarness(t, now)
		input := validSubstitutionInput()
		input.SubstituteTrainerID = "trainer-missing"

		_, err := service.Substitute(context.Background(), adminPrincipal, input)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["substitute_trainer_id"]; !ok {
			t.Fatalf("expected substitute_trainer_id error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("rejects a disabled substitute", func(t *testing.T) {
		t.Parallel()

		service, store := newSubstitutionHarness(t, now)
		store.Seed(testfixtures.NewUser(testfixtures.WithUserID("trainer-3"), testfixtures.WithUserDisabled()))

		input := validSubstitutionInput()
		input.SubstituteTrainerID = "trainer-3"

		_, err := service.Substitute(context.Background(), adminPrincipal, input)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestEligibleForSubstitution(t *testing.T) {
	t.Parallel()

	scheduled := testfixtures.NewEvent(testfixtures.WithTrainer("trainer-1"))
	if !EligibleForSubstitution(scheduled, "trainer-1") {
		t.Fatal("expected a scheduled event of the absent trainer to be eligible")
	}
	if EligibleForSubstitution(scheduled, "trainer-2") {
		t.Fatal("expected another trainer's event to be ineligible")
	}

	completed := testfixtures.NewEvent(testfixtures.WithTrainer("trainer-1"), testfixtures.WithStatus(persistence.EventCompleted))
	if !EligibleForSubstitution(completed, "trainer-1") {
		t.Fatal("expected completed events to stay eligible, the reassignment belongs on record")
	}

	cancelled := testfixtures.NewEvent(testfixtures.WithTrainer("trainer-1"), testfixtures.WithStatus(persistence.EventCancelled))
	if EligibleForSubstitution(cancelled, "trainer-1") {
		t.Fatal("expected cancelled events to be ineligible")
	}

	covered := testfixtures.NewEvent(testfixtures.WithTrainer("trainer-1"), testfixtures.Substituted("trainer-9", testfixtures.ReferenceTime()))
	if EligibleForSubstitution(covered, "trainer-1") {
		t.Fatal("expected already substituted events to be ineligible")
	}
}
