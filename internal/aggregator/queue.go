package aggregator

// GatedQueue 质量门限通过后才插入的定长FIFO
// 只用于计算尾随滑动平均；满时先逐出最旧条目
type GatedQueue[T any] struct {
	entries  []T
	capacity int
}

// NewGatedQueue 创建容量为capacity的门限队列
func NewGatedQueue[T any](capacity int) *GatedQueue[T] {
	if capacity < 1 {
		panic("aggregator: queue capacity must be positive")
	}
	return &GatedQueue[T]{capacity: capacity}
}

// Push 追加一个已通过质量门限的条目
func (q *GatedQueue[T]) Push(v T) {
	if len(q.entries) == q.capacity {
		copy(q.entries, q.entries[1:])
		q.entries[len(q.entries)-1] = v
		return
	}
	q.entries = append(q.entries, v)
}

// Values 按插入顺序返回所有条目（内部切片，调用方不得修改）
func (q *GatedQueue[T]) Values() []T {
	return q.entries
}

// Len 当前条目数
func (q *GatedQueue[T]) Len() int {
	return len(q.entries)
}

// meanValid 对高于下限阈值的值求算术平均
// 零值/NaN读数不应拖低平均值，低于minValid的值不参与计算
func meanValid(vals []float64, minValid float64) float64 {
	var sum float64
	var n int
	for _, v := range vals {
		if v != v { // NaN
			continue
		}
		if v <= minValid {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// meanAll 普通算术平均（允许0和负值参与，如半球平衡）
func meanAll(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
