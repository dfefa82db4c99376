package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/studio-scheduler/internal/persistence"
	"github.com/example/studio-scheduler/internal/testfixtures"
)

func TestGroupRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)

	t.Run("creates and lists groups by name", func(t *testing.T) {
		for _, name := range []string{"Hip Hop", "Ballet"} {
			group := testfixtures.NewGroup(testfixtures.WithGroupName(name))
			if err := harness.Store.Groups().CreateGroup(ctx, group); err != nil {
				t.Fatalf("CreateGroup(%s) failed: %v", name, err)
			}
		}

		groups, err := harness.Store.Groups().ListGroups(ctx)
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(groups) != 2 || groups[0].Name != "Ballet" || groups[1].Name != "Hip Hop" {
			t.Fatalf("unexpected listing: %#v", groups)
		}
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		dup := testfixtures.NewGroup(testfixtures.WithGroupName("Ballet"))
		if err := harness.Store.Groups().CreateGroup(ctx, dup); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("missing groups surface ErrNotFound", func(t *testing.T) {
		if _, err := harness.Store.Groups().GetGroup(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := harness.Store.Groups().DeleteGroup(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRoomRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)

	t.Run("creates, updates, and deletes rooms", func(t *testing.T) {
		room := testfixtures.NewRoom(testfixtures.WithRoomID("room-1"))
		if err := harness.Store.Rooms().CreateRoom(ctx, room); err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}

		fetched, err := harness.Store.Rooms().GetRoom(ctx, "room-1")
		if err != nil {
			t.Fatalf("GetRoom failed: %v", err)
		}
		fetched.Name = "Main Hall"
		fetched.Capacity = 40
		if err := harness.Store.Rooms().UpdateRoom(ctx, fetched); err != nil {
			t.Fatalf("UpdateRoom failed: %v", err)
		}

		rooms, err := harness.Store.Rooms().ListRooms(ctx)
		if err != nil {
			t.Fatalf("ListRooms failed: %v", err)
		}
		if len(rooms) != 1 || rooms[0].Name != "Main Hall" || rooms[0].Capacity != 40 {
			t.Fatalf("unexpected listing: %#v", rooms)
		}

		if err := harness.Store.Rooms().DeleteRoom(ctx, "room-1"); err != nil {
			t.Fatalf("DeleteRoom failed: %v", err)
		}
		if _, err := harness.Store.Rooms().GetRoom(ctx, "room-1"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("updating a missing room surfaces ErrNotFound", func(t *testing.T) {
		ghost := testfixtures.NewRoom(testfixtures.WithRoomID("ghost"))
		if err := harness.Store.Rooms().UpdateRoom(ctx, ghost); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
