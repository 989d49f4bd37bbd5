package verification

import (
	"crypto/subtle"
	"time"
)

// RequestAction 发送验证码时对存储执行的动作
type RequestAction int

const (
	// ActionCreate 无历史记录，新增一行
	ActionCreate RequestAction = iota + 1
	// ActionReissue 在最新行上换码并延长有效期
	ActionReissue
	// ActionReplace 最新行标记 EXPIRED 后新增一行
	ActionReplace
)

func (a RequestAction) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionReissue:
		return "reissue"
	case ActionReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// RequestPlan 发送验证码的执行计划
type RequestPlan struct {
	Action RequestAction
	// Current 最新行的新状态（Reissue / Replace 时写回）
	Current Record
	// RetireCurrent Replace 时最新行是否需要写回 EXPIRED
	RetireCurrent bool
	// Fresh 新增行（Create / Replace）
	Fresh Record
}

// Issued 本次需要通知用户的记录
func (p RequestPlan) Issued() Record {
	if p.Action == ActionReissue {
		return p.Current
	}
	return p.Fresh
}

// NewRecord 以 now 为起点创建 PENDING 记录
func NewRecord(email string, purpose Purpose, code string, now time.Time, policy Policy) Record {
	return Record{
		Email:        email,
		Purpose:      purpose,
		Code:         code,
		Status:       StatusPending,
		AttemptCount: 0,
		ExpiresAt:    now.Add(policy.ExpireWindow),
	}
}

// PlanRequest 计算发送验证码的状态迁移
// 判定顺序：VERIFIED → LOCKED（到期则原行换码）→ PENDING 未过期 → 过期换行。
func PlanRequest(latest *Record, email string, purpose Purpose, code string, now time.Time, policy Policy) (RequestPlan, error) {
	if latest == nil {
		return RequestPlan{
			Action: ActionCreate,
			Fresh:  NewRecord(email, purpose, code, now, policy),
		}, nil
	}

	current := *latest
	switch current.Status {
	case StatusVerified:
		return RequestPlan{}, ErrAlreadyVerified
	case StatusLocked:
		if current.LockActive(now) {
			return RequestPlan{}, &LockedError{LockedUntil: *current.LockedUntil}
		}
		// 解锁后沿用同一行，锁定优先于过期
		current = unlock(current)
		current.Code = code
		current.ExpiresAt = now.Add(policy.ExpireWindow)
		return RequestPlan{Action: ActionReissue, Current: current}, nil
	}

	if current.Status == StatusPending && !current.Expired(now) {
		current.Code = code
		current.ExpiresAt = now.Add(policy.ExpireWindow)
		return RequestPlan{Action: ActionReissue, Current: current}, nil
	}

	retire := latest.Status != StatusExpired
	current.Status = StatusExpired
	return RequestPlan{
		Action:        ActionReplace,
		Current:       current,
		RetireCurrent: retire,
		Fresh:         NewRecord(current.Email, current.Purpose, code, now, policy),
	}, nil
}

// ConfirmOutcome 校验结果
type ConfirmOutcome int

const (
	// OutcomeAlreadyVerified 已验证，幂等返回
	OutcomeAlreadyVerified ConfirmOutcome = iota + 1
	// OutcomeVerified 本次验证成功
	OutcomeVerified
	// OutcomeMismatch 验证码错误但未达上限
	OutcomeMismatch
)

func (o ConfirmOutcome) String() string {
	switch o {
	case OutcomeAlreadyVerified:
		return "already_verified"
	case OutcomeVerified:
		return "verified"
	case OutcomeMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// ConfirmPlan 校验验证码的执行计划
type ConfirmPlan struct {
	Outcome ConfirmOutcome
	Record  Record
	// Persist 是否需要写回 Record
	Persist bool
}

// Confirm 计算校验验证码的状态迁移
//
// 返回 error 时 ConfirmPlan.Persist 仍可能为 true：
// 过期（写 EXPIRED）与超限（写 LOCKED）都需要先落库再报错。
func Confirm(rec Record, submitted string, now time.Time, policy Policy) (ConfirmPlan, error) {
	if rec.Status == StatusVerified {
		return ConfirmPlan{Outcome: OutcomeAlreadyVerified, Record: rec}, nil
	}

	if rec.Status == StatusLocked {
		if rec.LockActive(now) {
			return ConfirmPlan{Record: rec}, &LockedError{LockedUntil: *rec.LockedUntil}
		}
		rec = unlock(rec)
	}

	if rec.Expired(now) {
		rec.Status = StatusExpired
		return ConfirmPlan{Record: rec, Persist: true}, ErrExpired
	}

	if codesEqual(rec.Code, submitted) {
		rec.Status = StatusVerified
		return ConfirmPlan{Outcome: OutcomeVerified, Record: rec, Persist: true}, nil
	}

	rec.AttemptCount++
	if rec.AttemptCount >= policy.MaxAttempts {
		lockedUntil := now.Add(policy.LockDuration)
		rec.Status = StatusLocked
		rec.LockedUntil = &lockedUntil
		return ConfirmPlan{Record: rec, Persist: true}, &AttemptLimitError{LockedUntil: lockedUntil}
	}
	return ConfirmPlan{Outcome: OutcomeMismatch, Record: rec, Persist: true}, nil
}

func unlock(rec Record) Record {
	rec.Status = StatusPending
	rec.AttemptCount = 0
	rec.LockedUntil = nil
	return rec
}

func codesEqual(stored, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}
