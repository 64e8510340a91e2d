package dto

import "time"

type GenerateInviteResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type JoinCircleRequest struct {
	Code string `json:"code"`
}

type JoinCircleResponse struct {
	Message     string `json:"message"`
	MemberName  string `json:"member_name"`
	MemberPhone string `json:"member_phone"`
}

type ReconcileResponse struct {
	Repaired int `json:"repaired"`
}
