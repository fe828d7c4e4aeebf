package util

import (
	"math"
	"strconv"
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// Round2 保留两位小数，半数向远离零方向进位
// 66.665 这类值的浮点表示略小于真实值，先补偿表示误差
func Round2(v float64) float64 {
	return math.Round(v*100+math.Copysign(1e-7, v)) / 100
}

// MeanHundredths 以百分之一为单位求平均，整数运算四舍五入
func MeanHundredths(sum, count int64) float64 {
	if count <= 0 {
		return 0
	}
	return float64((2*sum+count)/(2*count)) / 100
}
