package response

import "github.com/gin-gonic/gin"

// AppError 对外错误：Code 为业务状态码，Reason 为稳定原因码，Extra 合并进 data
type AppError struct {
	Code    int
	Reason  string
	Message string
	Extra   gin.H
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// With 追加 data 字段，空值忽略
func (e *AppError) With(key string, value interface{}) *AppError {
	if e == nil || key == "" || value == nil || value == "" {
		return e
	}
	if e.Extra == nil {
		e.Extra = gin.H{}
	}
	e.Extra[key] = value
	return e
}

// Write 写出响应
func (e *AppError) Write(c *gin.Context) {
	if e == nil {
		return
	}
	ErrorWithReason(c, e.Code, e.Reason, e.Message, e.Extra)
}

// WrapError 包装错误
func WrapError(code int, reason, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Reason:  reason,
		Message: message,
		Err:     err,
	}
}
