package main

import (
	"bufio"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"backseater/vm"
)

// systemClock is the real vm.TimerSource the host wires into a Machine: it
// reports milliseconds since the Unix epoch.
func systemClock() uint64 {
	return uint64(time.Now().UnixMilli())
}

// nonBlockingChan is a single-sender, multi-receiver channel with a bounded
// capacity tracked separately from the channel's own buffer, so a full
// channel reports back rather than blocking the caller.
type nonBlockingChan[T any] struct {
	channel  chan T
	count    atomic.Int32
	capacity int32
}

func newNonBlockingChan[T any](capacity int32) *nonBlockingChan[T] {
	return &nonBlockingChan[T]{channel: make(chan T, capacity), capacity: capacity}
}

func (nc *nonBlockingChan[T]) send(v T) bool {
	if nc.count.Add(1) > nc.capacity {
		nc.count.Add(-1)
		return false
	}
	nc.channel <- v
	return true
}

func (nc *nonBlockingChan[T]) receive() (T, bool) {
	v, ok := <-nc.channel
	if ok {
		nc.count.Add(-1)
	}
	return v, ok
}

// keyboardState is the host's vm.KeyPoll backend. It runs a single
// goroutine reading runes from stdin (the only routine allowed to touch it)
// and latches each rune as "pressed" for a short window, since a plain
// terminal gives key-down events with no matching key-up.
type keyboardState struct {
	sync.Mutex
	pressed  map[uint32]time.Time
	requests *nonBlockingChan[rune]
}

const keyLatchWindow = 150 * time.Millisecond

func newKeyboardState() *keyboardState {
	k := &keyboardState{
		pressed:  make(map[uint32]time.Time),
		requests: newNonBlockingChan[rune](64),
	}

	go func() {
		reader := bufio.NewReader(os.Stdin)
		for {
			r, _, err := reader.ReadRune()
			if err != nil {
				return
			}
			k.requests.send(r)
		}
	}()

	go func() {
		for r, ok := k.requests.receive(); ok; r, ok = k.requests.receive() {
			k.Lock()
			k.pressed[uint32(r)] = time.Now().Add(keyLatchWindow)
			k.Unlock()
		}
	}()

	return k
}

// poll implements vm.KeyPoll: a key reads as pressed until its latch window
// expires.
func (k *keyboardState) poll(code uint32) bool {
	k.Lock()
	defer k.Unlock()
	expires, ok := k.pressed[code]
	if !ok {
		return false
	}
	if time.Now().After(expires) {
		delete(k.pressed, code)
		return false
	}
	return true
}

var _ vm.KeyPoll = (*keyboardState)(nil).poll
