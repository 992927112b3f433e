package handler

// GenerateResponse is the HTTP response body for POST /otp/generate.
// DevOTP is only populated in development environments.
type GenerateResponse struct {
	Message   string `json:"message"`
	ExpiresIn string `json:"expires_in"`
	DevOTP    string `json:"dev_otp,omitempty"`
}

// VerifyResponse is the HTTP response body for POST /otp/verify.
type VerifyResponse struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
	Identity string `json:"identity"`
}
