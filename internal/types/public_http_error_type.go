package types

// PublicHTTPErrorType Type of error returned, should be used for client-side error handling
//
// swagger:model publicHttpErrorType
type PublicHTTPErrorType string

func NewPublicHTTPErrorType(value PublicHTTPErrorType) *PublicHTTPErrorType {
	return &value
}

// Pointer returns a pointer to a freshly-allocated PublicHTTPErrorType.
func (m PublicHTTPErrorType) Pointer() *PublicHTTPErrorType {
	return &m
}

const (

	// PublicHTTPErrorTypeGeneric captures enum value "generic"
	PublicHTTPErrorTypeGeneric PublicHTTPErrorType = "generic"

	// PublicHTTPErrorTypeValidation captures enum value "validation"
	PublicHTTPErrorTypeValidation PublicHTTPErrorType = "validation"

	// PublicHTTPErrorTypeRejected captures enum value "rejected"
	PublicHTTPErrorTypeRejected PublicHTTPErrorType = "rejected"

	// PublicHTTPErrorTypeDEVICELOCKED captures enum value "DEVICE_LOCKED"
	PublicHTTPErrorTypeDEVICELOCKED PublicHTTPErrorType = "DEVICE_LOCKED"

	// PublicHTTPErrorTypeDEVICEPROTOCOL captures enum value "DEVICE_PROTOCOL"
	PublicHTTPErrorTypeDEVICEPROTOCOL PublicHTTPErrorType = "DEVICE_PROTOCOL"

	// PublicHTTPErrorTypeDEVICETIMEOUT captures enum value "DEVICE_TIMEOUT"
	PublicHTTPErrorTypeDEVICETIMEOUT PublicHTTPErrorType = "DEVICE_TIMEOUT"

	// PublicHTTPErrorTypeSENDERMISMATCH captures enum value "SENDER_MISMATCH"
	PublicHTTPErrorTypeSENDERMISMATCH PublicHTTPErrorType = "SENDER_MISMATCH"
)
