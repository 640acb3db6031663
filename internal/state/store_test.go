package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/footctl/internal/device"
)

func TestStore_SetAndSnapshotClone(t *testing.T) {
	var s Store

	s.SetButton(device.ButtonMap{Bank: 1, Btn: 2, Short: []device.Action{{Type: device.ActionCC, Ch: 1, A: 7}}})
	s.SetLayout(device.Layout{BankCount: 2, Banks: []device.BankInfo{{Index: 0, Name: "A"}, {Index: 1, Name: "B"}}})

	snap := s.Snapshot()
	if snap.Button.Btn != 2 || len(snap.Button.Short) != 1 {
		t.Fatalf("snapshot button = %#v, want btn 2 with one action", snap.Button)
	}
	if snap.Meta.BankCount != 2 {
		t.Fatalf("Meta.BankCount = %d, want 2 (follows layout)", snap.Meta.BankCount)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Button.Short[0].A = 99
	snap.Layout.Banks[0].Name = "changed"
	snap2 := s.Snapshot()
	if snap2.Button.Short[0].A != 7 {
		t.Fatalf("Snapshot should clone actions; got a=%d want 7", snap2.Button.Short[0].A)
	}
	if snap2.Layout.Banks[0].Name != "A" {
		t.Fatalf("Snapshot should clone banks; got %q want A", snap2.Layout.Banks[0].Name)
	}
}

func TestStore_UpdateFuncsMutateUnderLock(t *testing.T) {
	var s Store
	s.SetBank(device.BankNames{Bank: 0, SwitchNames: []string{"a", "b"}})

	got := s.UpdateBank(func(b *device.BankNames) { b.SwitchNames[1] = "Amp" })
	if got.SwitchNames[1] != "Amp" {
		t.Fatalf("UpdateBank returned %v, want Amp at 1", got.SwitchNames)
	}
	got.SwitchNames[0] = "leak"
	if s.Bank().SwitchNames[0] != "a" {
		t.Fatalf("UpdateBank result shares memory with the store")
	}

	led := s.UpdateLED(func(l *device.LED) { l.Brightness = 42 })
	if led.Brightness != 42 || s.LED().Brightness != 42 {
		t.Fatalf("LED = %d, want 42", s.LED().Brightness)
	}
}

func TestStore_ExpFSPorts(t *testing.T) {
	var s Store
	s.SetMeta(device.Meta{ExpFSPorts: 2})

	if _, ok := s.ExpFS(1); !ok {
		t.Fatalf("port 1 missing after SetMeta")
	}
	if _, ok := s.UpdateExpFS(2, func(*device.ExpFSPort) {}); ok {
		t.Fatalf("UpdateExpFS accepted unknown port 2")
	}

	s.SetExpFS(device.ExpFSPort{Port: 1, Kind: device.KindExp, Exp: device.ExpCommand{Cmd: []device.Action{device.DefaultExpAction()}}})
	p, ok := s.UpdateExpFS(1, func(p *device.ExpFSPort) { p.CalMax = 3000 })
	if !ok || p.Kind != device.KindExp || p.CalMax != 3000 {
		t.Fatalf("UpdateExpFS = %#v,%v, want exp port with calMax 3000", p, ok)
	}
	if port, _ := s.Snapshot().Port(1); port.CalMax != 3000 {
		t.Fatalf("snapshot port calMax = %d, want 3000", port.CalMax)
	}
}

func TestSnapshot_NamesFallBackToDefaults(t *testing.T) {
	snap := Snapshot{
		Layout: device.Layout{Banks: []device.BankInfo{{Name: "Intro"}}},
		Bank:   device.BankNames{SwitchNames: []string{"Dly", ""}},
	}
	if got := snap.BankName(0); got != "Intro" {
		t.Fatalf("BankName(0) = %q, want Intro", got)
	}
	if got := snap.BankName(4); got != "Bank 5" {
		t.Fatalf("BankName(4) = %q, want Bank 5", got)
	}
	if got := snap.SwitchName(1); got != "SW2" {
		t.Fatalf("SwitchName(1) = %q, want SW2", got)
	}
}

func TestStore_UpdateLiveErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.UpdateLive(&device.LiveState{Bank: 3}, nil)
	prev := s.Snapshot()

	before := time.Now()
	origErr := errors.New("boom")
	s.UpdateLive(nil, origErr)

	snap := s.Snapshot()
	if snap.LiveBank != prev.LiveBank || !snap.HasLive {
		t.Fatalf("live bank changed on error: got %d want %d", snap.LiveBank, prev.LiveBank)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("fresh store: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.UpdateLive(nil, errors.New("fail 1"))
	if snap = s.Snapshot(); snap.IsOffline() {
		t.Fatal("IsOffline() = true, want false with 1 failure")
	}

	s.UpdateLive(nil, errors.New("fail 2"))
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 2 {
		t.Fatalf("ConsecutiveFailures = %d, want 2", snap.ConsecutiveFailures)
	}
	if !snap.IsOffline() {
		t.Fatal("IsOffline() = false, want true with 2 failures")
	}

	// Success resets counter
	s.UpdateLive(&device.LiveState{Bank: 0}, nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
}
