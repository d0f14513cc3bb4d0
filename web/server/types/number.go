// Package types contains the request and response types of the number
// service, shared by the server and the client.
package types

// InvalidPasswordMessage is the message returned for a wrong password. Older
// servers returned it as the body of a successful response.
const InvalidPasswordMessage = "Invalid password. Please try again"

// GetNextNumberRequest is the body of the typed POST endpoint.
type GetNextNumberRequest struct {
	ForKey   string `json:"ForKey"`
	Password string `json:"Password"`
}

// GetNextNumberResponse is the response of the typed POST endpoint.
type GetNextNumberResponse struct {
	ForKey             string `json:"ForKey"`
	NextSequenceNumber string `json:"NextSequenceNumber"`
}
