package lostxml

const (
	// Namespace is the LoST namespace, the default namespace on every
	// emitted document.
	Namespace = "urn:ietf:params:xml:ns:lost1"

	// MIMEType is the only content type the transport accepts and emits.
	MIMEType = "application/lost+xml"

	ProfileGeodetic = "geodetic-2d"
	ProfileCivic    = "civic"
)

// Operation names, the local name of a request document's root.
const (
	OpFindService            = "findService"
	OpFindIntersect          = "findIntersect"
	OpGetServiceBoundary     = "getServiceBoundary"
	OpListServices           = "listServices"
	OpListServicesByLocation = "listServicesByLocation"
)
