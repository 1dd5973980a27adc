package classifier

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnavailable 模型无法给出结果（未加载、图像损坏、输出不合法）
	ErrUnavailable   = errors.New("分类模型不可用")
	ErrModelNotFound = errors.New("模型文件未加载")
	ErrEmptyImage    = errors.New("图像数据为空")
)

// Label 皮肤病变类别
type Label struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// LesionLabels 模型输出的 7 个类别，顺序即类别 id
var LesionLabels = []Label{
	{ID: 0, Code: "akiec", Name: "光化性角化病"},
	{ID: 1, Code: "bcc", Name: "基底细胞癌"},
	{ID: 2, Code: "bkl", Name: "良性角化病"},
	{ID: 3, Code: "df", Name: "皮肤纤维瘤"},
	{ID: 4, Code: "mel", Name: "黑色素瘤"},
	{ID: 5, Code: "nv", Name: "黑色素细胞痣"},
	{ID: 6, Code: "vasc", Name: "血管病变"},
}

// Model 图像分类模型
type Model interface {
	// Predict 返回类别 id 和百分制可信度
	Predict(ctx context.Context, image []byte) (classID int, confidence float64, err error)
	Version() string
}

// AbsentModel 没有模型权重时使用，总是失败
type AbsentModel struct{}

func (AbsentModel) Predict(ctx context.Context, image []byte) (int, float64, error) {
	return 0, 0, ErrModelNotFound
}

func (AbsentModel) Version() string {
	return "未安装"
}

// LesionResult 分类结果
type LesionResult struct {
	Label      Label
	Confidence float64 // 百分制
	Simulated  bool
	Note       string
	// Cause 模拟结果对应的模型错误
	Cause error
}

type LesionClassifier struct {
	model Model
}

func NewLesionClassifier(model Model) *LesionClassifier {
	if model == nil {
		model = AbsentModel{}
	}
	return &LesionClassifier{model: model}
}

func (c *LesionClassifier) ModelVersion() string {
	return c.model.Version()
}

// Classify 调用模型推理。模型侧的任何失败都包装为 ErrUnavailable，
// context 取消/超时原样返回
func (c *LesionClassifier) Classify(ctx context.Context, image []byte) (*LesionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ErrEmptyImage)
	}

	classID, confidence, err := c.model.Predict(ctx, image)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if classID < 0 || classID >= len(LesionLabels) {
		return nil, fmt.Errorf("%w: class id %d out of range", ErrUnavailable, classID)
	}
	if confidence < 0 || confidence > 100 {
		return nil, fmt.Errorf("%w: confidence %.2f out of range", ErrUnavailable, confidence)
	}

	return &LesionResult{
		Label:      LesionLabels[classID],
		Confidence: confidence,
	}, nil
}

// ClassifyOrSimulate 模型不可用时按 fallback 生成模拟结果
func ClassifyOrSimulate(ctx context.Context, c *LesionClassifier, fallback *RandomFallback, image []byte) (*LesionResult, error) {
	result, err := c.Classify(ctx, image)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, ErrUnavailable) || fallback == nil {
		return nil, err
	}

	simulated := fallback.Simulate()
	simulated.Cause = err
	return simulated, nil
}
