// Package fair produces provably fair draws: each draw is derived from an
// HMAC-SHA512 of a secret server seed over the client seed and a nonce. Only
// the seed's hash is shown while it is in use; Rotate retires the seed and
// reveals it, so anyone can recompute the draws it produced.
package fair

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"sync"
	"time"
)

// Algorithm names the draw derivation in proofs.
const Algorithm = "hmac-sha512"

// Proof describes how a single draw was produced.
type Proof struct {
	Algorithm      string
	ServerSeedHash string
	ClientSeed     string
	Nonce          int
	Draw           float64
}

// Reveal discloses a retired server seed.
type Reveal struct {
	ServerSeed     string
	ServerSeedHash string
	ClientSeed     string
	// Draws is how many nonces, from 0, were drawn with the seed.
	Draws        int
	NextSeedHash string
	RevealedAt   time.Time
}

// Source is a provably fair wheel.Source. It is safe for concurrent use.
type Source struct {
	mu         sync.Mutex
	serverSeed string
	clientSeed string
	nonce      int
	last       Proof
}

// NewSource creates a source with a random 32 byte server seed.
func NewSource(clientSeed string) *Source {
	return NewSourceWithSeed(newSeed(), clientSeed)
}

func newSeed() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// NewSourceWithSeed creates a source with a known server seed.
func NewSourceWithSeed(serverSeed, clientSeed string) *Source {
	return &Source{serverSeed: serverSeed, clientSeed: clientSeed}
}

// Float64 returns the draw for the current nonce and advances it.
func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	draw := Draw(s.serverSeed, s.clientSeed, s.nonce)
	s.last = Proof{
		Algorithm:      Algorithm,
		ServerSeedHash: HashSeed(s.serverSeed),
		ClientSeed:     s.clientSeed,
		Nonce:          s.nonce,
		Draw:           draw,
	}
	s.nonce++
	return draw
}

// Last returns the proof of the most recent draw.
func (s *Source) Last() Proof {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Rotate retires the current server seed and starts a fresh one at nonce 0.
// The returned Reveal lets players verify every draw of the old seed.
func (s *Source) Rotate(now time.Time) Reveal {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := Reveal{
		ServerSeed:     s.serverSeed,
		ServerSeedHash: HashSeed(s.serverSeed),
		ClientSeed:     s.clientSeed,
		Draws:          s.nonce,
		RevealedAt:     now,
	}
	s.serverSeed = newSeed()
	s.nonce = 0
	r.NextSeedHash = HashSeed(s.serverSeed)
	return r
}

// ServerSeedHash is the commitment published before the seed is revealed.
func (s *Source) ServerSeedHash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HashSeed(s.serverSeed)
}

// Draw maps HMAC-SHA512(serverSeed, clientSeed-nonce) to [0, 1) using the
// top 52 bits of the digest.
func Draw(serverSeed, clientSeed string, nonce int) float64 {
	h := hmac.New(sha512.New, []byte(serverSeed))
	h.Write([]byte(clientSeed + "-" + strconv.Itoa(nonce)))
	sum := h.Sum(nil)
	bits := binary.BigEndian.Uint64(sum[:8]) >> 12
	return float64(bits) / (1 << 52)
}

// Verify reports whether proof matches the revealed server seed.
func Verify(serverSeed string, proof Proof) bool {
	if HashSeed(serverSeed) != proof.ServerSeedHash {
		return false
	}
	return Draw(serverSeed, proof.ClientSeed, proof.Nonce) == proof.Draw
}

// HashSeed returns the hex SHA-256 of seed.
func HashSeed(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}
