package chat

import "time"

// ============================================================
// Scheduler
// ============================================================

// Task: отложенная задача, которую можно отменить.
type Task interface {
	Stop() bool
}

type Scheduler interface {
	After(d time.Duration, fn func()) Task
}

// TimerScheduler планирует задачи через time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) After(d time.Duration, fn func()) Task {
	return time.AfterFunc(d, fn)
}
