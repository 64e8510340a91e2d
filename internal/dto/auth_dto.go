package dto

import "github.com/samuelAmenu/vbcs-backend/internal/models"

type RequestCodeRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type RequestCodeResponse struct {
	Message string `json:"message"`
	// TestCode is populated until the SMS gateway integration lands.
	TestCode string `json:"test_code,omitempty"`
}

type VerifyCodeRequest struct {
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code"`
}

type VerifyCodeResponse struct {
	AccessToken string           `json:"access_token"`
	IsNewUser   bool             `json:"is_new_user"`
	Identity    *models.Identity `json:"identity"`
}

type UpdateProfileRequest struct {
	FullName          string `json:"full_name"`
	AvatarURL         string `json:"avatar_url"`
	DeviceFingerprint string `json:"device_fingerprint"`
}
