package bot

import "testing"

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()

	t.Run("get missing returns nil", func(t *testing.T) {
		if s := store.Get(1); s != nil {
			t.Fatalf("Get(1) = %+v, want nil", s)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		store.Set(1, &Session{Flow: FlowCloseDates, Step: StepSelectingListing, ChatID: 100})
		s := store.Get(1)
		if s == nil {
			t.Fatal("Get(1) = nil after Set")
		}
		if s.Flow != FlowCloseDates || s.Step != StepSelectingListing {
			t.Errorf("session = %+v", s)
		}
	})

	t.Run("last set wins", func(t *testing.T) {
		store.Set(1, &Session{Flow: FlowCloseDates, Step: StepAwaitingDates, ListingID: 10})
		store.Set(1, &Session{Flow: FlowCalendar, Step: StepSelectingListing})
		s := store.Get(1)
		if s.Flow != FlowCalendar {
			t.Errorf("flow = %q, want %q", s.Flow, FlowCalendar)
		}
		if s.ListingID != 0 {
			t.Errorf("listing id leaked from previous session: %d", s.ListingID)
		}
	})

	t.Run("clear removes", func(t *testing.T) {
		store.Set(2, &Session{Flow: FlowOpenDates})
		store.Clear(2)
		if s := store.Get(2); s != nil {
			t.Fatalf("Get(2) = %+v after Clear, want nil", s)
		}
	})

	t.Run("clear missing is a no-op", func(t *testing.T) {
		store.Clear(99)
	})

	t.Run("users are independent", func(t *testing.T) {
		store.Set(3, &Session{Flow: FlowCloseDates})
		store.Set(4, &Session{Flow: FlowCalendar})
		store.Clear(3)
		if s := store.Get(4); s == nil || s.Flow != FlowCalendar {
			t.Errorf("user 4 session affected by clearing user 3: %+v", s)
		}
	})
}
