package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every reply. The HTTP status is always 200;
// StatusCode carries the outcome and is 0 on success.
type Envelope struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes one page of a list reply
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

// Success writes data
func Success(c *gin.Context, data interface{}) {
	write(c, Envelope{StatusCode: CodeOK, Msg: "success", Data: data})
}

// SuccessWithPage writes one page
func SuccessWithPage(c *gin.Context, data interface{}, pagination Pagination) {
	write(c, Envelope{StatusCode: CodeOK, Msg: "success", Data: data, Pagination: &pagination})
}

// Error writes an error reply; data carries the request id so clients can quote it
func Error(c *gin.Context, code int, msg string) {
	if msg == "" {
		msg = Text(code)
	}
	var data interface{}
	if id := c.GetString("request_id"); id != "" {
		data = gin.H{"request_id": id}
	}
	write(c, Envelope{StatusCode: code, Msg: msg, Data: data})
}

func write(c *gin.Context, body Envelope) {
	c.JSON(http.StatusOK, body)
}
