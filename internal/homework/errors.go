package homework

import "errors"

// Error taxonomy for the polling bridge. Callers wrap these with
// fmt.Errorf("%w: ...") to attach the key, status value or HTTP code,
// and classify with errors.Is.
var (
	ErrCredentialMissing        = errors.New("credential missing")
	ErrAPIUnavailable           = errors.New("review api unavailable")
	ErrMalformedPayload         = errors.New("malformed api payload")
	ErrKeyMissing               = errors.New("key missing")
	ErrShapeInvalid             = errors.New("invalid response shape")
	ErrTypeInvalid              = errors.New("invalid value type")
	ErrUnknownStatus            = errors.New("unknown homework status")
	ErrUnknownStatusForHomework = errors.New("no verdict for homework status")
	ErrNotificationFailed       = errors.New("notification failed")
)
