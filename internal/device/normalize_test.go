package device

import "testing"

func TestNormalizeLayout_PadsClipsAndReindexes(t *testing.T) {
	got := NormalizeLayout(Layout{
		BankCount: 3,
		Banks: []BankInfo{
			{Index: 7, Name: "Verse and chorus"},
			{Index: 9, Name: ""},
		},
	})
	if len(got.Banks) != 3 {
		t.Fatalf("len(Banks) = %d, want 3", len(got.Banks))
	}
	want := []string{"Verse and ", "Bank 2", "Bank 3"}
	for i, b := range got.Banks {
		if b.Index != i {
			t.Fatalf("Banks[%d].Index = %d, want %d", i, b.Index, i)
		}
		if b.Name != want[i] {
			t.Fatalf("Banks[%d].Name = %q, want %q", i, b.Name, want[i])
		}
	}
}

func TestNormalizeLayout_ZeroBankCountBecomesOne(t *testing.T) {
	got := NormalizeLayout(Layout{})
	if got.BankCount != 1 || len(got.Banks) != 1 {
		t.Fatalf("NormalizeLayout(empty) = %#v, want one bank", got)
	}
}

func TestNormalizeBankNames(t *testing.T) {
	got := NormalizeBankNames(BankNames{Bank: 4, SwitchNames: []string{"Delay!", "", "Rev"}}, 4)
	want := []string{"Delay", "SW2", "Rev", "SW4"}
	if got.Bank != 4 {
		t.Fatalf("Bank = %d, want 4", got.Bank)
	}
	if len(got.SwitchNames) != len(want) {
		t.Fatalf("len = %d, want %d", len(got.SwitchNames), len(want))
	}
	for i := range want {
		if got.SwitchNames[i] != want[i] {
			t.Fatalf("SwitchNames[%d] = %q, want %q", i, got.SwitchNames[i], want[i])
		}
	}
}

func TestNormalizeButton_FillsListsAndClamps(t *testing.T) {
	got := NormalizeButton(ButtonMap{PressMode: 9, ABLed: 4})
	if got.Short == nil || got.Long == nil {
		t.Fatalf("lists not filled: %#v", got)
	}
	if got.PressMode != PressGroupLED || got.ABLed != 1 {
		t.Fatalf("pressMode/abLed = %d/%d, want 3/1", got.PressMode, got.ABLed)
	}
}

func TestButtonPayload(t *testing.T) {
	long := []Action{{Type: ActionCC, Ch: 1, A: 1, B: 1}}
	tests := []struct {
		name     string
		in       ButtonMap
		wantLong int
		wantAB   int
	}{
		{name: "short drops long", in: ButtonMap{PressMode: PressShort, ABLed: 0, Long: long}, wantLong: 0, wantAB: 1},
		{name: "short+long keeps long", in: ButtonMap{PressMode: PressShortLong, ABLed: 0, Long: long}, wantLong: 1, wantAB: 1},
		{name: "toggle keeps abLed", in: ButtonMap{PressMode: PressToggleAB, ABLed: 0, Long: long}, wantLong: 1, wantAB: 0},
		{name: "group led drops long", in: ButtonMap{PressMode: PressGroupLED, ABLed: 0, Long: long}, wantLong: 0, wantAB: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ButtonPayload(tt.in, 20)
			if len(got.Long) != tt.wantLong {
				t.Fatalf("len(Long) = %d, want %d", len(got.Long), tt.wantLong)
			}
			if got.ABLed != tt.wantAB {
				t.Fatalf("ABLed = %d, want %d", got.ABLed, tt.wantAB)
			}
		})
	}
}

func TestButtonPayload_ClampsActionsAndCapsCount(t *testing.T) {
	in := ButtonMap{
		Bank: 1, Btn: 2,
		Short: []Action{
			{Type: ActionPC, Ch: 0, A: 200, B: 50, C: 9},
			{Type: "nrpn", Ch: 20, A: -1, B: 300},
			{Type: ActionCC, Ch: 1},
		},
	}
	got := ButtonPayload(in, 2)
	if got.Bank != 1 || got.Btn != 2 {
		t.Fatalf("identity = %d/%d, want 1/2", got.Bank, got.Btn)
	}
	if len(got.Short) != 2 {
		t.Fatalf("len(Short) = %d, want 2", len(got.Short))
	}
	pc := got.Short[0]
	if pc != (Action{Type: ActionPC, Ch: 1, A: 127, B: 0, C: 0}) {
		t.Fatalf("pc action = %#v", pc)
	}
	cc := got.Short[1]
	if cc != (Action{Type: ActionCC, Ch: 16, A: 0, B: 127, C: 0}) {
		t.Fatalf("cc action = %#v", cc)
	}
}

func TestExpFSPayload_ShapesByKind(t *testing.T) {
	sw := SwitchConfig{PressMode: PressShortLong, Short: []Action{DefaultAction()}, Long: []Action{DefaultAction()}}
	port := ExpFSPort{
		Port: 1, CalMin: 10, CalMax: 5000,
		Exp:  ExpCommand{Cmd: []Action{{Type: ActionCC, Ch: 3, A: 11, B: 0, C: 127}}},
		Tip:  sw,
		Ring: sw,
	}

	port.Kind = KindExp
	got := ExpFSPayload(port, 20)
	if len(got.Exp.Cmd) != 1 || got.Exp.Cmd[0].A != 11 || got.Exp.Cmd[0].C != 127 {
		t.Fatalf("exp cmd = %#v, want cc#11 0..127", got.Exp.Cmd)
	}
	if len(got.Tip.Short) != 0 || len(got.Ring.Short) != 0 {
		t.Fatalf("exp payload carries switch actions: %#v", got)
	}
	if got.CalMax != CalRange {
		t.Fatalf("CalMax = %d, want %d", got.CalMax, CalRange)
	}

	port.Kind = KindSingle
	got = ExpFSPayload(port, 20)
	if len(got.Exp.Cmd) != 0 {
		t.Fatalf("single payload carries exp cmd: %#v", got.Exp.Cmd)
	}
	if len(got.Tip.Long) != 1 || len(got.Ring.Short) != 0 {
		t.Fatalf("single payload tip/ring = %#v/%#v", got.Tip, got.Ring)
	}

	port.Kind = KindDual
	got = ExpFSPayload(port, 20)
	if len(got.Ring.Short) != 1 {
		t.Fatalf("dual payload ring = %#v, want one action", got.Ring)
	}

	port.Kind = KindExp
	port.Exp.Cmd = nil
	got = ExpFSPayload(port, 20)
	if len(got.Exp.Cmd) != 1 || got.Exp.Cmd[0] != DefaultExpAction() {
		t.Fatalf("exp payload without cmd = %#v, want default", got.Exp.Cmd)
	}
}

func TestWrap(t *testing.T) {
	tests := []struct{ n, max, want int }{
		{0, 4, 0},
		{4, 4, 0},
		{-1, 4, 3},
		{5, 4, 1},
		{3, 0, 0},
	}
	for _, tt := range tests {
		if got := Wrap(tt.n, tt.max); got != tt.want {
			t.Fatalf("Wrap(%d, %d) = %d, want %d", tt.n, tt.max, got, tt.want)
		}
	}
}

func TestClipText_CountsRunes(t *testing.T) {
	if got := ClipText("héllo wörld", 7); got != "héllo w" {
		t.Fatalf("ClipText = %q, want %q", got, "héllo w")
	}
	if got := ClipText("ok", 5); got != "ok" {
		t.Fatalf("ClipText = %q, want ok", got)
	}
}
