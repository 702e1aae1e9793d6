package model

// BasicResponse is the envelope the mobile client expects.
type BasicResponse struct {
	OK    bool   `json:"ok,omitempty"`
	Sent  *int   `json:"sent,omitempty"`
	Error string `json:"error,omitempty"`
}

// OK is the plain success body {"ok":true}.
func OK() BasicResponse {
	return BasicResponse{OK: true}
}

// Sent is the broadcast success body {"ok":true,"sent":n}.
func Sent(n int) BasicResponse {
	return BasicResponse{OK: true, Sent: &n}
}

// Failure is the client-error body {"error":msg}.
func Failure(msg string) BasicResponse {
	return BasicResponse{Error: msg}
}

// AdminResponse wraps admin endpoint payloads.
type AdminResponse struct {
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

// Success wraps data for admin endpoints.
func Success(msg string, data any) AdminResponse {
	return AdminResponse{Msg: msg, Data: data}
}
