// File: internal/api/register_request.go
package api

// swagger:model api.RegisterRequest
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=50" example:"alice"`
	Email    string `json:"email" validate:"required,email,max=255" example:"alice@example.com"`
	// Password 最多 72 bytes (bcrypt 上限)，由 handler 檢查
	Password string `json:"password" validate:"required" example:"Secret123!"`
}
