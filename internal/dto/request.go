package dto

type ProxyApplicationRequest struct {
	UserID string `json:"user_id"`
}

// GuestApplicationRequest is bound from either the JSON API or the HTML form.
type GuestApplicationRequest struct {
	Email       string `json:"email" form:"email"`
	FullName    string `json:"full_name" form:"full_name"`
	CompanyName string `json:"company_name" form:"company_name"`
	JobTitle    string `json:"job_title" form:"job_title"`
}
