package session

import "fmt"

// InitStatus is the engine's handshake verdict. Zero means the session
// was accepted; every other value is terminal for the connection.
type InitStatus uint32

const (
	InitOK InitStatus = iota
	InitUnexpected
	InitOutOfMemory
	InitInvalidAddress
	InitAddressLimitExceeded
	InitInvalidConcurrencyMax
	InitSystemResources
	InitNetworkSubsystem
)

var initStatusNames = [...]string{
	"ok",
	"unexpected error",
	"out of memory",
	"invalid address",
	"address limit exceeded",
	"invalid concurrency max",
	"system resources",
	"network subsystem",
}

func (s InitStatus) String() string {
	if int(s) < len(initStatusNames) {
		return initStatusNames[s]
	}
	return fmt.Sprintf("init status %d", uint32(s))
}

// InitError carries a rejecting handshake status.
type InitError struct {
	Status InitStatus
}

func (e *InitError) Error() string {
	return fmt.Sprintf("session: engine init failed: %s (%d)", e.Status, uint32(e.Status))
}

// Err returns nil for InitOK and an *InitError otherwise.
func (s InitStatus) Err() error {
	if s == InitOK {
		return nil
	}
	return &InitError{Status: s}
}
