package dto

type SubmitReportRequest struct {
	Number  string `json:"number"`
	Reason  string `json:"reason"`
	Comment string `json:"comment"`
}
