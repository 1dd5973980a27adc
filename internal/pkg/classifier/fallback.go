package classifier

import (
	"math/rand/v2"
	"sync"
	"time"
)

const (
	MinSimulatedConfidence = 50.0
	MaxSimulatedConfidence = 95.0
)

// SimulatedNote 附加在模拟结果上的说明
const SimulatedNote = "注意：分类模型当前不可用，此结果为随机模拟结果，不代表真实诊断。"

// RandomFallback 模型不可用时的模拟策略：均匀随机类别，可信度均匀分布在 [50, 95]
type RandomFallback struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomFallback seed 为 0 时按当前时间取种子
func NewRandomFallback(seed uint64) *RandomFallback {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandomFallback{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (f *RandomFallback) Simulate() *LesionResult {
	f.mu.Lock()
	classID := f.rng.IntN(len(LesionLabels))
	confidence := MinSimulatedConfidence + f.rng.Float64()*(MaxSimulatedConfidence-MinSimulatedConfidence)
	f.mu.Unlock()

	return &LesionResult{
		Label:      LesionLabels[classID],
		Confidence: confidence,
		Simulated:  true,
		Note:       SimulatedNote,
	}
}
