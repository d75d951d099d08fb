package mesh

// ErrorKind classifies the outcome of the most recent mesh operation.
// Kinds implement error so protocol paths can return them directly; the
// latest kind is also stored on the Mesh and readable via ErrorCode.
type ErrorKind uint8

const (
	NoError ErrorKind = iota
	// FailedInit: the routing layer refused to start.
	FailedInit
	// NotConfigured: operation attempted before a successful join.
	NotConfigured
	// InvalidParam: argument outside the operation's domain.
	InvalidParam
	// PendingData: renewal refused while unread radio data is pending.
	PendingData
	// FailedWrite: the routing layer reported a send failure.
	FailedWrite
	// FailedAddrLookup: no lookup answer from the coordinator in time.
	FailedAddrLookup
	// FailedAddrRequest: address response rejected as invalid.
	FailedAddrRequest
	// FailedAddrConfirm: confirmation never acknowledged.
	FailedAddrConfirm
	// PollFailed: no neighbor answered the discovery poll.
	PollFailed
	// NoResponse: no contact produced an address response.
	NoResponse
	// Timeout: a bounded wait hit its deadline.
	Timeout
	// AddressUnknown: the coordinator answered the lookup negatively.
	AddressUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case NoError:
		return "no error"
	case FailedInit:
		return "network init failed"
	case NotConfigured:
		return "node not configured"
	case InvalidParam:
		return "invalid parameter"
	case PendingData:
		return "unread radio data pending"
	case FailedWrite:
		return "network write failed"
	case FailedAddrLookup:
		return "address lookup failed"
	case FailedAddrRequest:
		return "address request rejected"
	case FailedAddrConfirm:
		return "address confirm not acknowledged"
	case PollFailed:
		return "no poll response"
	case NoResponse:
		return "no address response from contacts"
	case Timeout:
		return "timed out"
	case AddressUnknown:
		return "address unknown to coordinator"
	default:
		return "unknown error"
	}
}

func (k ErrorKind) Error() string {
	return "mesh: " + k.String()
}

// fail records the kind on the mesh and returns it as the error.
func (m *Mesh) fail(k ErrorKind) error {
	m.stateMu.Lock()
	m.lastErr = k
	m.stateMu.Unlock()
	return k
}

// clearErr resets the recorded kind at the start of an operation.
func (m *Mesh) clearErr() {
	m.stateMu.Lock()
	m.lastErr = NoError
	m.stateMu.Unlock()
}
