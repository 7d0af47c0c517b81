package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rushteam/recblend/core"
	"github.com/rushteam/recblend/logging"
)

// recsResponse 是三个推荐接口的统一响应
type recsResponse struct {
	Recs []int64 `json:"recs"`
}

type errorBody struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// 额外的错误代码
const (
	codeDeadlineExceeded = "DEADLINE_EXCEEDED"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("write JSON response")
	}
}

// respondError 按错误类型选择状态码：
//
//	INVALID_INPUT                     -> 400
//	超过请求截止时间                    -> 504
//	UNAVAILABLE / MALFORMED_RESPONSE  -> 502
//	其他                               -> 500
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	ev := logging.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		ev = logging.Ctx(r.Context()).Error()
	}
	ev.Err(err).Str("code", code).Int("status", status).Msg("request failed")

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	respondJSON(w, status, errorBody{Error: apiError{Code: code, Message: msg}})
}

func classify(err error) (int, string) {
	switch {
	case core.IsInvalidInput(err):
		return http.StatusBadRequest, core.ErrorCodeInvalidInput
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codeDeadlineExceeded
	case core.IsMalformed(err):
		return http.StatusBadGateway, core.ErrorCodeMalformedResponse
	case core.IsUnavailable(err):
		return http.StatusBadGateway, core.ErrorCodeUnavailable
	default:
		return http.StatusInternalServerError, core.ErrorCodeInternalError
	}
}
