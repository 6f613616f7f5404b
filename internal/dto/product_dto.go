package dto

type ProductResponse struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	IsPaid bool   `json:"is_paid"`
}
