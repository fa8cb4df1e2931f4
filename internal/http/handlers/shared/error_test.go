package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/agrimart/ordercore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(t *testing.T, err error) (int, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondServiceError(c, err)

	var resp struct {
		StatusCode int    `json:"status_code"`
		Msg        string `json:"msg"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.StatusCode, resp.Msg
}

func TestRespondServiceError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{name: "validation", err: service.ErrMinOrderValue, code: 400, msg: service.ErrMinOrderValue.Error()},
		{name: "wrapped validation", err: fmt.Errorf("create: %w", service.ErrMinOrderValue), code: 400, msg: service.ErrMinOrderValue.Error()},
		{name: "not found", err: service.ErrOrderNotFound, code: 404, msg: "order not found"},
		{name: "forbidden", err: service.ErrOrderAccessDenied, code: 403, msg: "order does not belong to the caller"},
		{name: "conflict", err: service.ErrConcurrentUpdate, code: 409},
		{name: "consistency", err: service.ErrOrderTotalsMismatch, code: 500, msg: service.ErrConsistency.Error()},
		{name: "unknown", err: errors.New("db exploded"), code: 500, msg: "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, msg := respond(t, tc.err)
			assert.Equal(t, tc.code, code)
			if tc.msg != "" {
				assert.Equal(t, tc.msg, msg)
			}
		})
	}
}

func TestNormalizePagination(t *testing.T) {
	page, size := NormalizePagination(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	page, size = NormalizePagination(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, size)
}
