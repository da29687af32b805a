// Package stats 提供负载统计量计算
package stats

import (
	"math"
	"sort"
)

// Mean 计算平均值
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance 计算样本方差（单样本时无定义按 0 处理）
func Variance(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(n-1)
}

// StdDev 计算样本标准差
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// MeanStd 一次返回均值与样本标准差
func MeanStd(values []float64) (mean, std float64) {
	return Mean(values), StdDev(values)
}

// Range 计算极值
func Range(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// Gini 计算基尼系数（0=完全均衡，1=完全不均衡）
func Gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}
	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}
