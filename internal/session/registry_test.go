package session

import (
	"sync"
	"testing"
	"time"

	"github.com/hangoutx/hangoutx-server/internal/testutil"
	"github.com/hangoutx/hangoutx-server/internal/types"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoomInfo(clock clockwork.Clock) roomInfo {
	return roomInfo{
		Id:        1,
		Code:      "ABC123",
		Name:      "movie night",
		Mode:      types.ModeMovie,
		HostId:    1,
		ExpiresAt: clock.Now().Add(24 * time.Hour),
	}
}

func TestGetOrCreate(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := NewRegistry(testutil.TestLogger(t), newTestStats(), clock)
	defer reg.Shutdown()

	s1 := reg.getOrCreate(testRoomInfo(clock))
	s2 := reg.getOrCreate(testRoomInfo(clock))
	assert.Same(t, s1, s2, "expected one session instance per room code")

	got, ok := reg.get("ABC123")
	require.True(t, ok)
	assert.Same(t, s1, got)

	_, ok = reg.get("XYZ999")
	assert.False(t, ok)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := NewRegistry(testutil.TestLogger(t), newTestStats(), clock)
	defer reg.Shutdown()

	const callers = 16
	sessions := make([]*Session, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i] = reg.getOrCreate(testRoomInfo(clock))
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		assert.Same(t, sessions[0], sessions[i], "concurrent callers must receive the same instance")
	}
}

func TestDrop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := NewRegistry(testutil.TestLogger(t), newTestStats(), clock)
	defer reg.Shutdown()

	s := reg.getOrCreate(testRoomInfo(clock))
	reg.drop(s)

	_, ok := reg.get("ABC123")
	assert.False(t, ok)

	// dropping a stale instance never evicts its replacement
	replacement := reg.getOrCreate(testRoomInfo(clock))
	reg.drop(s)
	got, ok := reg.get("ABC123")
	require.True(t, ok)
	assert.Same(t, replacement, got)
}

func TestGracePeriodUnload(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := NewRegistry(testutil.TestLogger(t), newTestStats(), clock)

	s := reg.getOrCreate(testRoomInfo(clock))

	// wait for the run loop to arm its grace and expiry timers
	clock.BlockUntil(2)
	clock.Advance(graceTimeout + time.Second)

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("timeout: session did not unload after grace period")
	}

	_, ok := reg.get("ABC123")
	assert.False(t, ok, "expected session to be removed from the registry")
}

func TestRoomExpiryUnload(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := NewRegistry(testutil.TestLogger(t), newTestStats(), clock)

	info := testRoomInfo(clock)
	// expires well before the grace timer would fire
	info.ExpiresAt = clock.Now().Add(30 * time.Second)
	s := reg.getOrCreate(info)

	clock.BlockUntil(2)
	clock.Advance(31 * time.Second)

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("timeout: session did not unload at room expiry")
	}
}

func TestShutdown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := NewRegistry(testutil.TestLogger(t), newTestStats(), clock)

	s := reg.getOrCreate(testRoomInfo(clock))
	reg.Shutdown()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("timeout: session did not exit on registry shutdown")
	}

	_, ok := reg.get("ABC123")
	assert.False(t, ok)
}
