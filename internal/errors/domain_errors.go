package errors

import (
	"fmt"
	"net/http"
	"time"
)

// 采样相关错误

// ProcessTableReadFailed 创建进程表读取失败错误
func ProcessTableReadFailed(cause error) *AppError {
	return New(ErrTypeMonitor, "failed to read process table", cause, http.StatusInternalServerError).WithStack()
}

// ProcessReadFailed 创建单个进程读取失败错误
func ProcessReadFailed(pid int32, cause error) *AppError {
	return New(ErrTypeMonitor, fmt.Sprintf("failed to read process %d", pid), cause, http.StatusInternalServerError)
}

// SamplerAlreadyRunning 创建采样器重复启动错误
func SamplerAlreadyRunning() *AppError {
	return New(ErrTypeMonitor, "sampler is already running", nil, http.StatusConflict).WithStack()
}

// 配置相关错误

// InvalidInterval 创建无效采样间隔错误
func InvalidInterval(d time.Duration) *AppError {
	return New(ErrTypeConfig, fmt.Sprintf("invalid poll interval: %s (minimum 100ms)", d), nil, http.StatusBadRequest).WithStack()
}

// InvalidCapacity 创建无效历史容量错误
func InvalidCapacity(n int) *AppError {
	return New(ErrTypeConfig, fmt.Sprintf("invalid history capacity: %d", n), nil, http.StatusBadRequest).WithStack()
}

// InvalidRetention 创建无效保留时长错误
func InvalidRetention(d time.Duration) *AppError {
	return New(ErrTypeConfig, fmt.Sprintf("invalid retention: %s (must not be negative)", d), nil, http.StatusBadRequest).WithStack()
}

// ConfigInvalid 创建配置无效错误
func ConfigInvalid(field string, cause error) *AppError {
	return New(ErrTypeConfig, fmt.Sprintf("invalid configuration: %s", field), cause, http.StatusInternalServerError).WithStack()
}

// 目标相关错误

// TargetNotFound 创建监控目标不存在错误
func TargetNotFound(key string) *AppError {
	return New(ErrTypeNotFound, fmt.Sprintf("watch target not found: %s", key), nil, http.StatusNotFound).WithStack()
}

// 参数验证错误

// RequiredParam 创建必需参数缺失错误
func RequiredParam(param string) *AppError {
	return New(ErrTypeInvalidArg, fmt.Sprintf("required parameter missing: %s", param), nil, http.StatusBadRequest).WithStack()
}

// InvalidParam 创建参数无效错误
func InvalidParam(param string, reason string) *AppError {
	message := fmt.Sprintf("invalid parameter: %s", param)
	if reason != "" {
		message = fmt.Sprintf("%s (%s)", message, reason)
	}
	return New(ErrTypeInvalidArg, message, nil, http.StatusBadRequest).WithStack()
}
