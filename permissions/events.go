package permissions

// Event names a consent UI can subscribe to. One event per distinct
// fingerprint is emitted no matter how many callers are blocked on it.
const (
	EventProtocolPermissionRequested    = "onProtocolPermissionRequested"
	EventBasketAccessRequested          = "onBasketAccessRequested"
	EventCertificateAccessRequested     = "onCertificateAccessRequested"
	EventSpendingAuthorizationRequested = "onSpendingAuthorizationRequested"
	EventGroupedPermissionRequested     = "onGroupedPermissionRequested"
)

// RequestEvent is delivered to subscribed handlers when a permission request
// needs a user decision. RequestID is the request's fingerprint; it is the
// value a UI passes back when granting or denying.
type RequestEvent struct {
	Request   Request
	RequestID string
}

// GroupedRequestEvent is delivered when an originator's grouped permission
// bundle needs a user decision.
type GroupedRequestEvent struct {
	Originator string
	Requested  GroupedPermissions
	RequestID  string
}

// RequestHandler receives single-permission request events. Handler errors
// are logged and otherwise ignored; they never affect the pending request.
type RequestHandler func(ev RequestEvent) error

// GroupedRequestHandler receives grouped permission request events.
type GroupedRequestHandler func(ev GroupedRequestEvent) error
