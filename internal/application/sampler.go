package app

import "math"

// minSampledFPS частота, ниже которой обрабатывается каждый кадр
const minSampledFPS = 10

// Sampler решает, какие кадры видео отдавать детектору
type Sampler struct {
	Interval int
}

// NewSampler считает интервал выборки для частоты кадров fps и целевой частоты target
func NewSampler(fps, target float64) Sampler {
	interval := 1
	if fps > minSampledFPS && target > 0 {
		interval = max(1, int(math.Floor(fps/target)))
	}
	return Sampler{Interval: interval}
}

// Selects сообщает, нужно ли обработать кадр с номером index (нумерация с 1)
func (s Sampler) Selects(index int) bool {
	return index > 0 && index%s.Interval == 0
}

// Expected возвращает число кадров, которые будут выбраны из потока длиной n
func (s Sampler) Expected(n int) int {
	if n <= 0 {
		return 0
	}
	return n / s.Interval
}
