package control

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestShutdownSetsStopping(t *testing.T) {
	Reset()
	if Stopping() {
		t.Fatal("Stopping() true after Reset")
	}
	Shutdown()
	if !Stopping() {
		t.Fatal("Stopping() false after Shutdown")
	}
	Reset()
}

func TestSignalActivitySetsHot(t *testing.T) {
	Reset()
	SignalActivity()
	if !Hot() {
		t.Fatal("Hot() false after SignalActivity")
	}
	PollCooldown()
	if !Hot() {
		t.Fatal("PollCooldown cleared hot flag before cooldown elapsed")
	}
	Reset()
}

func TestPollCooldownClearsAfterIdle(t *testing.T) {
	Reset()
	SignalActivity()
	atomic.StoreInt64(&lastHot, time.Now().Add(-2*time.Duration(cooldownNs)).UnixNano())
	PollCooldown()
	if Hot() {
		t.Fatal("hot flag survived an idle period longer than cooldown")
	}
	Reset()
}
