package fair

import (
	"testing"
	"time"
)

func TestDraw_Deterministic(t *testing.T) {
	a := Draw("server", "client", 3)
	b := Draw("server", "client", 3)
	if a != b {
		t.Errorf("Draw not deterministic: %v != %v", a, b)
	}
	if a == Draw("server", "client", 4) {
		t.Error("different nonces should give different draws")
	}
}

func TestDraw_Range(t *testing.T) {
	for nonce := 0; nonce < 1000; nonce++ {
		d := Draw("seed", "table", nonce)
		if d < 0 || d >= 1 {
			t.Fatalf("Draw(nonce=%d) = %v, outside [0,1)", nonce, d)
		}
	}
}

func TestSource_NonceAndProof(t *testing.T) {
	s := NewSourceWithSeed("secret", "table-1")
	first := s.Float64()
	p1 := s.Last()
	if p1.Nonce != 0 || p1.Draw != first {
		t.Errorf("first proof %+v, want nonce 0 draw %v", p1, first)
	}
	s.Float64()
	p2 := s.Last()
	if p2.Nonce != 1 {
		t.Errorf("second nonce %d, want 1", p2.Nonce)
	}
	if p2.ServerSeedHash != HashSeed("secret") {
		t.Error("proof should carry the seed hash")
	}
	if !Verify("secret", p1) || !Verify("secret", p2) {
		t.Error("proofs should verify against the revealed seed")
	}
	if Verify("other", p1) {
		t.Error("proof should not verify against a different seed")
	}
}

func TestNewSource_RandomSeed(t *testing.T) {
	a := NewSource("c")
	b := NewSource("c")
	if a.ServerSeedHash() == b.ServerSeedHash() {
		t.Error("two sources should not share a server seed")
	}
}

func TestSource_RotateRevealsSeed(t *testing.T) {
	s := NewSourceWithSeed("secret", "table-1")
	s.Float64()
	s.Float64()
	proof := s.Last()
	committed := s.ServerSeedHash()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := s.Rotate(now)
	if r.ServerSeed != "secret" || r.ServerSeedHash != committed {
		t.Fatalf("reveal %+v does not match the committed seed", r)
	}
	if r.Draws != 2 || r.ClientSeed != "table-1" || !r.RevealedAt.Equal(now) {
		t.Errorf("reveal %+v", r)
	}
	if !Verify(r.ServerSeed, proof) {
		t.Error("last proof should verify against the revealed seed")
	}
	if r.NextSeedHash != s.ServerSeedHash() || r.NextSeedHash == committed {
		t.Errorf("next hash %q, current %q", r.NextSeedHash, s.ServerSeedHash())
	}

	s.Float64()
	if next := s.Last(); next.Nonce != 0 || next.ServerSeedHash != r.NextSeedHash {
		t.Errorf("draw after rotation %+v, want nonce 0 under the new seed", next)
	}
}
