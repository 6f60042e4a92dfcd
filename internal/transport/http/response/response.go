package response

import (
	"errors"

	"user-admin-api/internal/domain"
)

type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

// New 构造函数（保证 data 不为 null）
func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

// OK 成功响应
func OK(data interface{}) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error 失败响应（可以传自定义 msg 覆盖默认）
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}

// CodeOf 把 domain 错误族映射到 resp code
func CodeOf(err error) int {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return CodeConflict
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidToken):
		return CodeUnauthorized
	case errors.Is(err, domain.ErrInsufficientRole):
		return CodeForbidden
	default:
		return CodeServerError
	}
}
