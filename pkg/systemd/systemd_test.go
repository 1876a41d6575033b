package systemd

import (
	"errors"
	"testing"
)

func TestDisabledNotifierNeverSends(t *testing.T) {
	n := New(false)
	n.send = func(bool, string) (bool, error) {
		t.Fatal("send called")
		return false, nil
	}
	if ok, err := n.Ready(); ok || err != nil {
		t.Fatalf("Ready = %v, %v", ok, err)
	}
	if d := n.WatchdogInterval(); d != 0 {
		t.Fatalf("WatchdogInterval = %v", d)
	}
}

func TestNotifierStates(t *testing.T) {
	n := New(true)
	var got []string
	var unset []bool
	n.send = func(u bool, s string) (bool, error) {
		got = append(got, s)
		unset = append(unset, u)
		return true, nil
	}
	_, _ = n.Ready()
	_, _ = n.Status("polling")
	_, _ = n.Watchdog()
	_, _ = n.Stopping()

	want := []string{"READY=1", "STATUS=polling", "WATCHDOG=1", "STOPPING=1"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("state[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if unset[0] || !unset[3] {
		t.Fatalf("unset flags = %v", unset)
	}

	n.send = func(bool, string) (bool, error) { return false, errors.New("boom") }
	if _, err := n.Ready(); err == nil {
		t.Fatal("expected error")
	}
}

func TestNilNotifier(t *testing.T) {
	var n *Notifier
	if ok, err := n.Watchdog(); ok || err != nil {
		t.Fatalf("Watchdog = %v, %v", ok, err)
	}
}
