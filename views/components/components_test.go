package components

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"spinwheel/internal/viewmodel"
	"spinwheel/internal/wheel"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestResult_Colors(t *testing.T) {
	win := renderString(t, Result(viewmodel.ResultFragment{Visible: true, Message: "You won: 500", Win: true}))
	if !strings.Contains(win, "#4CAF50") || !strings.Contains(win, "You won: 500") {
		t.Errorf("win banner %q", win)
	}
	lose := renderString(t, Result(viewmodel.ResultFragment{Visible: true, Message: "You won: Nothing"}))
	if !strings.Contains(lose, "#F44336") {
		t.Errorf("lose banner %q", lose)
	}
	hidden := renderString(t, Result(viewmodel.ResultFragment{}))
	if !strings.Contains(hidden, "hidden") {
		t.Errorf("hidden banner %q", hidden)
	}
}

func TestControls_DisabledWhileSpinning(t *testing.T) {
	out := renderString(t, Controls(viewmodel.ControlsFragment{
		TableID: "abc", Label: "Spinning...", Disabled: true, Spinning: true, HasPlayer: true,
	}))
	if !strings.Contains(out, "disabled") {
		t.Errorf("expected disabled button: %q", out)
	}
	if !strings.Contains(out, `/table/abc/spin`) {
		t.Errorf("missing spin action: %q", out)
	}
}

func TestPlayers_EscapesNames(t *testing.T) {
	out := renderString(t, Players(viewmodel.PlayersFragment{
		Heading: "Players",
		Players: []viewmodel.PlayerEntry{{Name: "<b>eve</b>", Balance: 10, Spins: 1}},
	}))
	if strings.Contains(out, "<b>eve</b>") {
		t.Errorf("name not escaped: %q", out)
	}
}

func TestWheel_EmbedsSVG(t *testing.T) {
	out := renderString(t, Wheel(viewmodel.WheelFragment{
		Size:    200,
		Sectors: []wheel.Sector{{Label: "A", Color: "#FF0000", Weight: 1}, {Label: "B", Color: "#00FF00", Weight: 1}},
		Pointer: wheel.DefaultPointer,
	}))
	if !strings.Contains(out, `<div id="wheel"`) || !strings.Contains(out, "<svg") {
		t.Errorf("unexpected wheel markup: %q", out)
	}
}

func TestControls_LeaveForm(t *testing.T) {
	out := renderString(t, Controls(viewmodel.ControlsFragment{
		TableID: "abc", Label: "Spin", HasPlayer: true, LeaveLabel: "Leave table",
	}))
	if !strings.Contains(out, `/table/abc/leave`) || !strings.Contains(out, "Leave table") {
		t.Errorf("missing leave form: %q", out)
	}
	guest := renderString(t, Controls(viewmodel.ControlsFragment{TableID: "abc", LeaveLabel: "Leave table"}))
	if strings.Contains(guest, "/leave") {
		t.Errorf("guest should not see leave form: %q", guest)
	}
}

func TestFairness_RotateOnlyForOwner(t *testing.T) {
	data := viewmodel.FairnessFragment{
		TableID:  "abc",
		Heading:  "Fairness",
		SeedHash: "deadbeef",
		Odds: []viewmodel.OddsEntry{
			{Label: "<i>500</i>", Percent: "75.0%"},
			{Label: "Nothing", Percent: "25.0%"},
		},
		RotateLabel:   "Reveal seed",
		RevealedLabel: "Revealed seeds",
	}
	out := renderString(t, Fairness(data))
	for _, want := range []string{`id="fairness"`, "deadbeef", "75.0%", "25.0%", "/table/abc/seeds"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "<i>500</i>") {
		t.Errorf("label not escaped: %q", out)
	}
	if strings.Contains(out, `/table/abc/seed"`) {
		t.Errorf("rotate form shown without CanRotate: %q", out)
	}
	data.CanRotate = true
	if out := renderString(t, Fairness(data)); !strings.Contains(out, `/table/abc/seed"`) {
		t.Errorf("rotate form missing for owner: %q", out)
	}
}

func TestHistory_ProofInTitle(t *testing.T) {
	out := renderString(t, History(viewmodel.HistoryFragment{
		Heading: "History",
		Entries: []viewmodel.HistoryEntry{{Text: "alice: 500", Win: true, At: "12:00", Proof: "nonce 3"}},
	}))
	if !strings.Contains(out, `title="nonce 3"`) {
		t.Errorf("missing proof title: %q", out)
	}
}
