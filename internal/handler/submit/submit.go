// Package submit 舊版單一表單投稿端點，不寫入資料庫
package submit

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

//go:embed success.html
var successPage string

// previewRunes 日誌中內容預覽的最大字元數
const previewRunes = 100

const invalidRequest = "invalid request"

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewRunes {
		return s
	}
	return string(r[:previewRunes]) + "..."
}

// @Summary     Legacy news submission
// @Description 接收 title/author/category/content 表單並記錄於日誌，回傳靜態確認頁
// @Tags        submit
// @Accept      application/x-www-form-urlencoded
// @Produce     html
// @Param       title    formData string false "標題"
// @Param       author   formData string false "作者"
// @Param       category formData string false "分類"
// @Param       content  formData string false "內容"
// @Success     200 {string} string "確認頁"
// @Failure     400 {string} string "invalid request"
// @Router      /submit [post]
func Handler(log logrus.FieldLogger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Method != http.MethodPost {
			return c.String(http.StatusBadRequest, invalidRequest)
		}
		if _, err := c.FormParams(); err != nil {
			return c.String(http.StatusBadRequest, invalidRequest)
		}
		// 只看 body 中的欄位，query string 不算
		form := c.Request().PostForm
		if len(form) == 0 {
			return c.String(http.StatusBadRequest, invalidRequest)
		}

		log.WithFields(logrus.Fields{
			"title":    form.Get("title"),
			"author":   form.Get("author"),
			"category": form.Get("category"),
			"content":  preview(form.Get("content")),
		}).Info("收到新的投稿")

		return c.HTML(http.StatusOK, successPage)
	}
}
