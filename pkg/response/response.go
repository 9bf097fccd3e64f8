package response

// Response is the envelope for non-list API responses. Failures always carry
// success=false, a human message and a machine readable errorKind.
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	ErrorKind string      `json:"errorKind,omitempty"`
}

// Success wraps data in a successful response.
func Success(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// Message returns a successful response with a message for the user.
func Message(message string, data interface{}) Response {
	return Response{Success: true, Message: message, Data: data}
}

// Error returns a failed response.
func Error(kind, message string) Response {
	return Response{Success: false, Message: message, ErrorKind: kind}
}
