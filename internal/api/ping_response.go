package api

// PingResponse 健康檢查回應模型
// swagger:model api.PingResponse
type PingResponse struct {
	// 回應訊息
	Message string `json:"message" example:"pong"`
}
