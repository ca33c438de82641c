package apperrors

import (
	"errors"
	"fmt"
)

// ── 错误分类 ──
//
// 设计说明：
//   - 调用方需要区分"可恢复"与"不可恢复"的失败，禁止通过匹配错误文本判断。
//   - 每一类错误有一个哨兵值，具体错误通过 %w 包装哨兵生成，
//     调用方统一用 errors.Is 判断类别。

var (
	// ErrValidation 输入校验失败（区间/时刻/日期格式非法），写入前即被拒绝
	ErrValidation = errors.New("输入校验失败")
	// ErrDuplicateRequest 同键已存在待审批记录，提交被拒绝
	ErrDuplicateRequest = errors.New("已存在待审批记录")
	// ErrNotFound 目标记录不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrAlreadyDecided 记录已进入终态，不可再次裁决
	ErrAlreadyDecided = errors.New("记录已裁决")
	// ErrStoreUnavailable 存储层不可用，调用方可自行退避重试
	ErrStoreUnavailable = errors.New("存储服务不可用")
)

// Validation 构造携带细节的校验错误
func Validation(detail string) error {
	return fmt.Errorf("%w: %s", ErrValidation, detail)
}

// Validationf 格式化构造校验错误
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// StoreUnavailable 包装存储层底层错误
func StoreUnavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
