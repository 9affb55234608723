package shared

import (
	"errors"

	"github.com/checkout-core/internal/http/response"
	"github.com/checkout-core/internal/logger"
	"github.com/checkout-core/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil || c.Request == nil {
		return logger.S()
	}
	return logger.FromContext(c.Request.Context())
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, "", msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// RespondServiceError 按错误分类映射业务错误码，业务规则错误附带原因码。
func RespondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	appErr := MapServiceError(err)

	switch appErr.Code {
	case response.CodeInternal, response.CodeServiceUnavailable:
		RequestLog(c).Errorw("handler_service_error",
			"code", appErr.Code,
			"reason", appErr.Reason,
			"error", err,
		)
	default:
		RequestLog(c).Debugw("handler_service_rejected",
			"code", appErr.Code,
			"reason", appErr.Reason,
			"error", err,
		)
	}
	appErr.Write(c)
}

// MapServiceError 将 service 错误转换为统一错误，优惠券拒绝附带券码与具体原因
func MapServiceError(err error) *response.AppError {
	appErr := mapErrorKind(err)
	if reason, ok := service.CouponRejectionReason(err); ok {
		appErr.With("coupon_reason", reason)
	}
	var rejection *service.CouponRejection
	if errors.As(err, &rejection) {
		appErr.With("coupon_code", rejection.Code)
	}
	return appErr
}

func mapErrorKind(err error) *response.AppError {
	reason := service.ReasonCode(err)
	switch service.ErrorKind(err) {
	case service.ErrorKindValidation:
		return response.WrapError(response.CodeBadRequest, reason, err.Error(), err)
	case service.ErrorKindNotFound:
		return response.WrapError(response.CodeNotFound, reason, err.Error(), err)
	case service.ErrorKindBusinessRule:
		return response.WrapError(response.CodeUnprocessable, reason, err.Error(), err)
	case service.ErrorKindConfig:
		return response.WrapError(response.CodeServiceUnavailable, reason, "settlement configuration error", err)
	default:
		return response.WrapError(response.CodeInternal, reason, "internal error", err)
	}
}
