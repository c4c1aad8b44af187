package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gesture_sentry/internal/gesture"
)

// fakeRecorder hands out scripted traces in order and counts sensor use.
type fakeRecorder struct {
	traces       []gesture.Trace
	calibrateErr error
	captureErr   error

	calibrations int
	captures     int
}

func (f *fakeRecorder) Calibrate(ctx context.Context) error {
	f.calibrations++
	return f.calibrateErr
}

func (f *fakeRecorder) Capture(ctx context.Context) (gesture.Trace, error) {
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	tr := f.traces[f.captures%len(f.traces)]
	f.captures++
	return tr, nil
}

// statusLog collects every notification.
type statusLog struct {
	mu       sync.Mutex
	statuses []Status
}

func (l *statusLog) Notify(s Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses = append(l.statuses, s)
}

func (l *statusLog) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.statuses))
	for i, s := range l.statuses {
		out[i] = s.Message
	}
	return out
}

func (l *statusLog) last() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.statuses) == 0 {
		return Status{}
	}
	return l.statuses[len(l.statuses)-1]
}

func testController(rec Recorder, log *statusLog) *Controller {
	return New(rec, log, Options{StepDelay: -1})
}

func gestureTrace(scale float64) gesture.Trace {
	tr := make(gesture.Trace, 50)
	for i := range tr {
		tr[i] = gesture.Sample{
			X: scale * float64(i%7),
			Y: scale * float64((i+3)%5),
			Z: -scale * float64(i%11),
		}
	}
	return tr
}

func TestRecordStoresKey(t *testing.T) {
	rec := &fakeRecorder{traces: []gesture.Trace{gestureTrace(10)}}
	log := &statusLog{}
	c := testController(rec, log)

	c.RecordKey(context.Background())

	assert.True(t, c.HasKey())
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 1, rec.calibrations)

	msgs := log.messages()
	assert.Contains(t, msgs, "Calibrating...")
	assert.Contains(t, msgs, "Recording in 3...")
	assert.Contains(t, msgs, "Recording...")
	assert.Contains(t, msgs, "Saving Key...")
	assert.Equal(t, Status{Message: "Key saved.", Locked: true, HasKey: true}, log.last())
}

func TestRecordOverwritesOldKey(t *testing.T) {
	rec := &fakeRecorder{traces: []gesture.Trace{gestureTrace(10), gestureTrace(20)}}
	log := &statusLog{}
	c := testController(rec, log)

	c.RecordKey(context.Background())
	c.RecordKey(context.Background())

	msgs := log.messages()
	assert.Contains(t, msgs, "Removing old key...")
	assert.Contains(t, msgs, "New key saved.")
	assert.True(t, c.HasKey())
}

func TestUnlockWithMatchingGesture(t *testing.T) {
	// Same trace for the key and the attempt: self-correlation is 1.0.
	rec := &fakeRecorder{traces: []gesture.Trace{gestureTrace(10)}}
	log := &statusLog{}
	c := testController(rec, log)

	c.RecordKey(context.Background())
	c.AttemptUnlock(context.Background())

	last := log.last()
	assert.Equal(t, "UNLOCK: SUCCESS", last.Message)
	assert.False(t, last.Locked)
	assert.True(t, last.HasKey, "key is retained after a successful unlock")
	assert.Equal(t, 2, rec.calibrations, "calibration is rebuilt per session")
}

func TestUnlockWithWrongGestureFailsClosed(t *testing.T) {
	key := gestureTrace(10)
	wrong := make(gesture.Trace, len(key))
	for i, s := range key {
		wrong[i] = gesture.Sample{X: -s.X, Y: -s.Y, Z: -s.Z}
	}
	rec := &fakeRecorder{traces: []gesture.Trace{key, wrong}}
	log := &statusLog{}
	c := testController(rec, log)

	c.RecordKey(context.Background())
	c.AttemptUnlock(context.Background())

	last := log.last()
	assert.Equal(t, "UNLOCK: FAILED", last.Message)
	assert.True(t, last.Locked)
}

func TestUnlockWithoutKeySkipsCapture(t *testing.T) {
	rec := &fakeRecorder{traces: []gesture.Trace{gestureTrace(10)}}
	log := &statusLog{}
	c := testController(rec, log)

	c.AttemptUnlock(context.Background())

	last := log.last()
	assert.Equal(t, "NO KEY SAVED.", last.Message)
	assert.False(t, last.Locked)
	assert.Zero(t, rec.calibrations, "no key means the sensor is never touched")
	assert.Zero(t, rec.captures)
}

func TestUnlockWithAllZeroKeyNeverSucceeds(t *testing.T) {
	zero := make(gesture.Trace, 40)
	rec := &fakeRecorder{traces: []gesture.Trace{zero, gestureTrace(10)}}
	log := &statusLog{}
	c := testController(rec, log)

	c.RecordKey(context.Background())
	c.AttemptUnlock(context.Background())

	assert.Equal(t, "UNLOCK: FAILED", log.last().Message)
}

func TestEraseOnEmptyKey(t *testing.T) {
	log := &statusLog{}
	c := testController(&fakeRecorder{}, log)

	c.EraseKey()

	assert.False(t, c.HasKey())
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, Status{Message: "Key Erased.", Locked: false, HasKey: false}, log.last())
}

func TestEraseAfterRecordThenUnlockReportsNoKey(t *testing.T) {
	rec := &fakeRecorder{traces: []gesture.Trace{gestureTrace(10)}}
	log := &statusLog{}
	c := testController(rec, log)

	c.RecordKey(context.Background())
	require.True(t, c.HasKey())

	c.EraseKey()
	assert.False(t, c.HasKey())

	c.AttemptUnlock(context.Background())
	assert.Equal(t, "NO KEY SAVED.", log.last().Message)
}

func TestCalibrationErrorIsTerminalForAttempt(t *testing.T) {
	rec := &fakeRecorder{calibrateErr: errors.New("drdy timeout")}
	log := &statusLog{}
	c := testController(rec, log)

	c.RecordKey(context.Background())

	assert.Equal(t, "SENSOR ERROR", log.last().Message)
	assert.False(t, c.HasKey())
	assert.Equal(t, StateIdle, c.State())
}

func TestCaptureErrorKeepsExistingKey(t *testing.T) {
	rec := &fakeRecorder{traces: []gesture.Trace{gestureTrace(10)}}
	log := &statusLog{}
	c := testController(rec, log)

	c.RecordKey(context.Background())
	require.True(t, c.HasKey())

	rec.captureErr = errors.New("spi transfer failed")
	c.AttemptUnlock(context.Background())

	last := log.last()
	assert.Equal(t, "SENSOR ERROR", last.Message)
	assert.True(t, last.Locked, "sensor failure fails closed")
	assert.True(t, c.HasKey())
}

func TestRunSerializesPostedEvents(t *testing.T) {
	rec := &fakeRecorder{traces: []gesture.Trace{gestureTrace(10)}}

	done := make(chan struct{})
	c := New(rec, NotifierFunc(func(s Status) {
		if s.Message == "Key Erased." {
			close(done)
		}
	}), Options{StepDelay: -1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	// An erase posted behind a record is applied only after the record
	// settles: the queue is the serialization point.
	require.True(t, c.Post(Event{Kind: EventRecord}))
	require.True(t, c.Post(Event{Kind: EventErase}))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for queued erase to apply")
	}
	assert.False(t, c.HasKey())
}

func TestPostDropsWhenQueueFull(t *testing.T) {
	c := New(&fakeRecorder{}, &statusLog{}, Options{StepDelay: -1, QueueSize: 2})

	// Nothing is draining the queue.
	assert.True(t, c.Post(Event{Kind: EventRecord}))
	assert.True(t, c.Post(Event{Kind: EventUnlock}))
	assert.False(t, c.Post(Event{Kind: EventErase}))
}
