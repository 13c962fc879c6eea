package api

// ErrorResponse 全域錯誤響應模型
// swagger:model api.ErrorResponse
type ErrorResponse struct {
	// detail 錯誤描述
	Detail string `json:"detail" example:"News not found"`
}
