package ir

// services.go - Diagnostic services, requests, and responses.

// ResponseType classifies the expected response behavior of a service.
type ResponseType uint8

// Response type constants.
const (
	RequestOnly ResponseType = iota
	PosResponse
	PosResponseWithSubfunction
	NegResponse
	UnknownResponse ResponseType = 255
)

var responseTypeNames = map[ResponseType]string{
	RequestOnly:                "REQUEST_ONLY",
	PosResponse:                "POS_RESPONSE",
	PosResponseWithSubfunction: "POS_RESPONSE_WITH_SUBFUNCTION",
	NegResponse:                "NEG_RESPONSE",
	UnknownResponse:            "UNKNOWN",
}

func (r ResponseType) String() string {
	if s, ok := responseTypeNames[r]; ok {
		return s
	}
	return "UNKNOWN"
}

// AddressingMode selects physical, functional, or both addressing.
type AddressingMode string

// Addressing mode constants.
const (
	AddressingPhysical   AddressingMode = "physical"
	AddressingFunctional AddressingMode = "functional"
	AddressingBoth       AddressingMode = "both"
)

// Message is a request or response: an ordered list of positioned params
// plus the constant byte prefix used for matching.
type Message struct {
	ShortName string
	Params    []Param

	// ConstantPrefix holds the fixed leading bytes of the message.
	ConstantPrefix []byte
}

// ServiceKey is the composite identity of a service: short name, service id,
// and subfunction. Subfunction is -1 for services without one.
type ServiceKey struct {
	ShortName   string
	ServiceID   uint8
	Subfunction int16
}

// DiagService is a complete UDS diagnostic service definition.
type DiagService struct {
	ShortName string
	LongName  string

	// ServiceID is the UDS SID (0x00-0xFF).
	ServiceID uint8
	// Subfunction is nil for services without a subfunction.
	Subfunction *uint8

	ResponseType ResponseType

	Request          *Message
	PositiveResponse *Message
	NegativeResponse *Message

	// RequiredSessions and RequiredSecurity name the sessions and security
	// levels the service is gated on. Empty means unrestricted.
	RequiredSessions []string
	RequiredSecurity []string

	Addressing AddressingMode

	// AudienceInclude/AudienceExclude gate the service by audience.
	AudienceInclude []string
	AudienceExclude []string

	// VariantRef names the owning variant for variant-private services.
	// Empty means the service belongs to the base variant.
	VariantRef string
}

// Key returns the composite identity of the service.
func (s *DiagService) Key() ServiceKey {
	k := ServiceKey{ShortName: s.ShortName, ServiceID: s.ServiceID, Subfunction: -1}
	if s.Subfunction != nil {
		k.Subfunction = int16(*s.Subfunction)
	}
	return k
}
