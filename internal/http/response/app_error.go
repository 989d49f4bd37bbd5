package response

// AppError 接口层错误：业务状态码 + 消息键 + 原始错误
type AppError struct {
	Code int
	Key  string
	Err  error
}

// NewAppError 创建接口层错误
func NewAppError(code int, key string, err error) *AppError {
	return &AppError{Code: code, Key: key, Err: err}
}

// Message 返回面向调用方的提示文案
func (e *AppError) Message() string {
	return Message(e.Key)
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Key
	}
	return e.Key + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}
