package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/studio-scheduler/internal/persistence"
	"github.com/example/studio-scheduler/internal/testfixtures"
)

func newGroupHarness(t *testing.T) (*GroupService, *testfixtures.MemStore) {
	t.Helper()

	store := testfixtures.NewMemStore()
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	ids := testfixtures.NewIDGenerator("group")
	return NewGroupService(store, ids.NextFunc(), clock.NowFunc(), nil), store
}

func TestGroupService_CreateGroup(t *testing.T) {
	t.Parallel()

	t.Run("persists a group with a trimmed name", func(t *testing.T) {
		t.Parallel()

		service, store := newGroupHarness(t)
		group, err := service.CreateGroup(context.Background(), adminPrincipal, GroupInput{Name: "  Jazz Advanced  "})
		if err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if group.Name != "Jazz Advanced" {
			t.Fatalf("expected trimmed name, got %q", group.Name)
		}
		if _, err := store.Groups().GetGroup(context.Background(), group.ID); err != nil {
			t.Fatalf("expected group to be stored: %v", err)
		}
	})

	t.Run("requires a name", func(t *testing.T) {
		t.Parallel()

		service, _ := newGroupHarness(t)
		_, err := service.CreateGroup(context.Background(), adminPrincipal, GroupInput{Name: "   "})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("duplicate names map to already exists", func(t *testing.T) {
		t.Parallel()

		service, _ := newGroupHarness(t)
		if _, err := service.CreateGroup(context.Background(), adminPrincipal, GroupInput{Name: "Hip Hop"}); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if _, err := service.CreateGroup(context.Background(), adminPrincipal, GroupInput{Name: "Hip Hop"}); !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("rejects non-admin principals", func(t *testing.T) {
		t.Parallel()

		service, _ := newGroupHarness(t)
		trainer := Principal{UserID: "trainer-1", Role: persistence.RoleTrainer}
		if _, err := service.CreateGroup(context.Background(), trainer, GroupInput{Name: "Salsa"}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestGroupService_DeleteGroup(t *testing.T) {
	t.Parallel()

	service, store := newGroupHarness(t)
	store.Seed(
		testfixtures.NewGroup(testfixtures.WithGroupID("group-1")),
		testfixtures.NewGroup(testfixtures.WithGroupID("group-2")),
		testfixtures.NewSeries(testfixtures.WithSeriesID("series-1"), testfixtures.SeriesForGroup("group-1")),
		testfixtures.NewEvent(testfixtures.WithEventID("event-1"), testfixtures.ForGroup("group-1")),
		testfixtures.NewEvent(testfixtures.WithEventID("event-2"), testfixtures.ForGroup("group-2")),
	)

	if err := service.DeleteGroup(context.Background(), adminPrincipal, "group-1"); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}

	if _, err := store.Groups().GetGroup(context.Background(), "group-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected group to be gone, got %v", err)
	}
	if _, err := store.Series().GetSeries(context.Background(), "series-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected series to be gone, got %v", err)
	}
	if _, err := store.Events().GetEvent(context.Background(), "event-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected event to be gone, got %v", err)
	}

	// The other group's records survive.
	if _, err := store.Events().GetEvent(context.Background(), "event-2"); err != nil {
		t.Fatalf("expected unrelated event to survive: %v", err)
	}

	if err := service.DeleteGroup(context.Background(), adminPrincipal, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
