package processor

import "errors"

var (
	// ErrInsufficientData 缓冲样本不足，跳过本次处理，下次注入时重试
	ErrInsufficientData = errors.New("processor: insufficient data")

	// ErrInvalidQuality 全部样本低于质量下限
	// 处理器仍返回零值低置信度窗口，不中断流水线
	ErrInvalidQuality = errors.New("processor: all samples below quality floor")
)
