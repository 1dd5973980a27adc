package service

import "time"

// Clock 便于测试替换当前时间
type Clock interface {
	Now() time.Time
}

// SystemClock 默认实现
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return SystemClock{}
	}
	return c
}
