package buffer

// Ring 固定容量环形缓冲，写满后覆盖最旧元素
// Push为O(1)，构造后不再分配（GrowOnce除外）
// 非并发安全：由流水线的单次在途调度保证单写单读
type Ring[T any] struct {
	data  []T
	head  int // 下一个写入位置
	size  int
	grown bool
}

// NewRing 创建容量为capacity的环形缓冲
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		panic("buffer: capacity must be positive")
	}
	return &Ring[T]{
		data: make([]T, capacity),
	}
}

// Push 写入一个元素，满时覆盖最旧元素
func (r *Ring[T]) Push(v T) {
	r.data[r.head] = v
	r.head = (r.head + 1) % len(r.data)
	if r.size < len(r.data) {
		r.size++
	}
}

// PushSlice 批量写入
func (r *Ring[T]) PushSlice(vs []T) {
	for _, v := range vs {
		r.Push(v)
	}
}

// Len 当前元素数
func (r *Ring[T]) Len() int {
	return r.size
}

// Cap 容量
func (r *Ring[T]) Cap() int {
	return len(r.data)
}

// Full 是否已满
func (r *Ring[T]) Full() bool {
	return r.size == len(r.data)
}

// ToSlice 按写入顺序（最旧到最新）返回拷贝
func (r *Ring[T]) ToSlice() []T {
	out := make([]T, r.size)
	start := r.head - r.size
	if start < 0 {
		start += len(r.data)
	}
	for i := 0; i < r.size; i++ {
		out[i] = r.data[(start+i)%len(r.data)]
	}
	return out
}

// Latest 返回最新的n个元素（不足n时返回全部），按写入顺序
func (r *Ring[T]) Latest(n int) []T {
	if n > r.size {
		n = r.size
	}
	out := make([]T, n)
	start := r.head - n
	if start < 0 {
		start += len(r.data)
	}
	for i := 0; i < n; i++ {
		out[i] = r.data[(start+i)%len(r.data)]
	}
	return out
}

// Clear 清空缓冲（容量不变）
func (r *Ring[T]) Clear() {
	r.head = 0
	r.size = 0
}

// GrowOnce 扩容一次（持续写满压力下由调用方触发）
// 已扩容过或factor<=1时为空操作
func (r *Ring[T]) GrowOnce(factor float64) bool {
	if r.grown || factor <= 1 {
		return false
	}
	newCap := int(float64(len(r.data)) * factor)
	if newCap <= len(r.data) {
		newCap = len(r.data) + 1
	}
	old := r.ToSlice()
	r.data = make([]T, newCap)
	r.head = 0
	r.size = 0
	r.grown = true
	r.PushSlice(old)
	return true
}
