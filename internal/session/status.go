package session

// Status is the user-visible state of the lock, emitted after every
// transition. It carries a short display string and the lock indicator that
// the display binary mirrors on the status LEDs.
type Status struct {
	Message string `json:"message"`
	Locked  bool   `json:"locked"`
	HasKey  bool   `json:"has_key"`
}

// Notifier receives every status transition. Implementations must not block
// for long; they run on the controller goroutine.
type Notifier interface {
	Notify(Status)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Status)

func (f NotifierFunc) Notify(s Status) { f(s) }
