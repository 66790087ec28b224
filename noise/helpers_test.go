package noise

import (
	"errors"
	"io"
	mathrand "math/rand"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/wgnoise/crypto"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// testUpcall hands out sequential indices so runs are reproducible.
type testUpcall struct {
	mu      sync.Mutex
	next    uint32
	remotes map[[KeySize]byte]*Remote
	indices map[uint32]*Remote
	dropped []uint32
	failSet error
}

func newTestUpcall() *testUpcall {
	return &testUpcall{
		remotes: make(map[[KeySize]byte]*Remote),
		indices: make(map[uint32]*Remote),
	}
}

func (u *testUpcall) add(r *Remote) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.remotes[r.PublicKey()] = r
}

func (u *testUpcall) RemoteGet(public [KeySize]byte) *Remote {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.remotes[public]
}

func (u *testUpcall) IndexSet(r *Remote) (uint32, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.failSet != nil {
		return 0, u.failSet
	}
	u.next++
	u.indices[u.next] = r
	return u.next, nil
}

func (u *testUpcall) IndexDrop(index uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.indices, index)
	u.dropped = append(u.dropped, index)
}

func (u *testUpcall) live() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.indices)
}

func (u *testUpcall) wasDropped(index uint32) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, d := range u.dropped {
		if d == index {
			return true
		}
	}
	return false
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy unavailable") }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig(clock crypto.TimeProvider, seed int64) *Config {
	cfg := NewConfig()
	cfg.TimeProvider = clock
	cfg.Random = mathrand.New(mathrand.NewSource(seed))
	cfg.Logger = quietLogger()
	return cfg
}

func testKey(base byte) [KeySize]byte {
	var k [KeySize]byte
	for i := range k {
		k[i] = base + byte(i)
	}
	return k
}

// pair is two nodes that know each other. aToB is A's Remote for B.
type pair struct {
	clock  *crypto.MockTimeProvider
	ua, ub *testUpcall
	a, b   *Local
	aToB   *Remote
	bToA   *Remote
}

func newPair(t testing.TB, mutate func(*Config)) *pair {
	t.Helper()

	clock := crypto.NewMockTimeProvider(testEpoch)
	cfgA := testConfig(clock, 1)
	cfgB := testConfig(clock, 2)
	if mutate != nil {
		mutate(cfgA)
		mutate(cfgB)
	}

	p := &pair{clock: clock, ua: newTestUpcall(), ub: newTestUpcall()}

	var err error
	p.a, err = NewLocal(p.ua, cfgA)
	require.NoError(t, err)
	p.b, err = NewLocal(p.ub, cfgB)
	require.NoError(t, err)
	require.NoError(t, p.a.SetPrivate(testKey(1)))
	require.NoError(t, p.b.SetPrivate(testKey(101)))

	p.aToB = NewRemote(p.b.PublicKey(), p.a)
	p.bToA = NewRemote(p.a.PublicKey(), p.b)
	p.ua.add(p.aToB)
	p.ub.add(p.bToA)
	return p
}

// runHandshake runs a full exchange started by initiator and returns the
// Remote the responder matched.
func runHandshake(t testing.TB, initiator *Remote, responder *Local) *Remote {
	t.Helper()

	initiation, err := initiator.CreateInitiation()
	require.NoError(t, err)
	peer, err := responder.ConsumeInitiation(initiation)
	require.NoError(t, err)
	response, err := peer.CreateResponse()
	require.NoError(t, err)
	require.NoError(t, initiator.ConsumeResponse(response))
	return peer
}

func slot(r *Remote, s Slot) *keypair {
	r.keypairs.mu.RLock()
	defer r.keypairs.mu.RUnlock()
	return r.keypairs.slots[s]
}
