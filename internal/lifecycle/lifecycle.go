// Package lifecycle reacts to SIGINT and SIGTERM.
//
// The first signal cancels every context obtained from WithSignalCancel so a
// running merge stops between files. If no such context is active, or a
// second signal arrives, the registered handlers run in reverse
// registration order and the process exits with 130 or 143.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// Handler receives the OS signal that triggered shutdown.
type Handler func(os.Signal)

// HandlerID identifies a registered handler.
type HandlerID int64

var (
	defaultSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

	idCounter atomic.Int64

	startOnce  sync.Once
	signalChan chan os.Signal

	stateMu  sync.Mutex
	handlers = make(map[HandlerID]Handler)
	order    []HandlerID
	cancels  = make(map[int64]context.CancelFunc)
	received os.Signal

	channelFactory = newSignalChan
	notifyFunc     = signal.Notify
	stopFunc       = signal.Stop
	exitFunc       = os.Exit
)

// Register adds a handler that will run when the process is about to exit
// because of a signal. The returned HandlerID can be passed to Unregister.
func Register(handler Handler) HandlerID {
	if handler == nil {
		return 0
	}

	startOnce.Do(startListener)

	id := HandlerID(idCounter.Add(1))

	stateMu.Lock()
	handlers[id] = handler
	order = append(order, id)
	stateMu.Unlock()

	return id
}

// Unregister removes a previously registered handler.
func Unregister(id HandlerID) {
	if id == 0 {
		return
	}

	stateMu.Lock()
	defer stateMu.Unlock()

	delete(handlers, id)
	for i, existing := range order {
		if existing == id {
			order = append(order[:i], order[i+1:]...)
			break
		}
	}
}

// WithSignalCancel returns a context cancelled by the first shutdown signal.
// Call the returned function once the work it guards is done.
func WithSignalCancel(parent context.Context) (context.Context, context.CancelFunc) {
	startOnce.Do(startListener)

	ctx, cancel := context.WithCancel(parent)
	id := idCounter.Add(1)

	stateMu.Lock()
	cancels[id] = cancel
	stateMu.Unlock()

	return ctx, func() {
		stateMu.Lock()
		delete(cancels, id)
		stateMu.Unlock()
		cancel()
	}
}

// Received reports the signal that cancelled the active contexts, if any.
func Received() (os.Signal, bool) {
	stateMu.Lock()
	defer stateMu.Unlock()
	return received, received != nil
}

// ExitCode maps a signal to the conventional shell exit status.
func ExitCode(sig os.Signal) int {
	switch sig {
	case os.Interrupt:
		return 130
	case syscall.SIGTERM:
		return 143
	default:
		return 1
	}
}

func startListener() {
	signalChan = channelFactory()
	notifyFunc(signalChan, defaultSignals...)

	go listen(signalChan)
}

func listen(signals <-chan os.Signal) {
	for sig := range signals {
		if cancelActive(sig) {
			continue
		}
		runHandlers(sig)
		exitFunc(ExitCode(sig))
		return
	}
}

// cancelActive cancels the active contexts on the first signal. It returns
// false when there was nothing to cancel or the signal is a repeat.
func cancelActive(sig os.Signal) bool {
	stateMu.Lock()
	defer stateMu.Unlock()

	if received != nil || len(cancels) == 0 {
		return false
	}

	received = sig
	for _, cancel := range cancels {
		cancel()
	}
	return true
}

func runHandlers(sig os.Signal) {
	stateMu.Lock()
	snapshot := make([]Handler, 0, len(order))
	for _, id := range order {
		snapshot = append(snapshot, handlers[id])
	}
	stateMu.Unlock()

	for i := len(snapshot) - 1; i >= 0; i-- {
		if snapshot[i] != nil {
			callHandler(snapshot[i], sig)
		}
	}
}

func callHandler(handler Handler, sig os.Signal) {
	defer func() {
		_ = recover()
	}()
	handler(sig)
}

// reset clears global state (tests only).
func reset() {
	if signalChan != nil {
		stopFunc(signalChan)
	}
	signalChan = nil

	startOnce = sync.Once{}
	idCounter.Store(0)

	stateMu.Lock()
	handlers = make(map[HandlerID]Handler)
	order = nil
	cancels = make(map[int64]context.CancelFunc)
	received = nil
	stateMu.Unlock()

	restoreFactories()
}

func newSignalChan() chan os.Signal {
	return make(chan os.Signal, 1)
}

func restoreFactories() {
	channelFactory = newSignalChan
	notifyFunc = signal.Notify
	stopFunc = signal.Stop
	exitFunc = os.Exit
}
