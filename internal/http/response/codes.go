package response

// Envelope status codes. They reuse HTTP numbers but travel in the body.
const (
	CodeOK              = 0
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeTooManyRequests = 429
	CodeInternal        = 500
)

var codeText = map[int]string{
	CodeOK:              "success",
	CodeBadRequest:      "bad request",
	CodeUnauthorized:    "unauthorized",
	CodeForbidden:       "forbidden",
	CodeNotFound:        "not found",
	CodeConflict:        "conflict",
	CodeTooManyRequests: "too many requests",
	CodeInternal:        "internal error",
}

// Text is the default message for a code
func Text(code int) string {
	if text, ok := codeText[code]; ok {
		return text
	}
	return "error"
}
