package dto

type LostModeRequest struct {
	Active    bool   `json:"active"`
	Message   string `json:"message"`
	PlaySiren bool   `json:"play_siren"`
}

type SOSRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
