package processor

// SpO2估计：对红光/红外分别取脉动成分与基线的比值，
// 红光比红外的R值经分段线性标定曲线映射为血氧百分比。
// 标定点近似自Maxim参考表的二次拟合（-45.06R²+30.354R+94.845）。

const (
	spo2Min = 85
	spo2Max = 100

	// 质量差时向典型值回拉
	spo2Fallback         = 95
	spo2QualityThreshold = 50
)

var spo2Curve = []struct{ r, spo2 float64 }{
	{0.4, 100.0},
	{0.7, 98.9},
	{1.0, 94.8},
	{1.3, 88.1},
	{1.6, 78.1},
	{2.0, 75.0},
}

// computeSpO2 由脉动/基线幅值比计算血氧
// acRed/acIR为滤波后信号的峰谷幅值，dcRed/dcIR为原始信号均值
// quality为窗口整体SQI（0-100），差时向95回拉
func computeSpO2(acRed, dcRed, acIR, dcIR, quality float64) float64 {
	if dcRed <= 0 || dcIR <= 0 || acIR <= 0 {
		return 0
	}
	perfusionRed := acRed / dcRed
	perfusionIR := acIR / dcIR
	if perfusionIR <= 0 {
		return 0
	}
	r := perfusionRed / perfusionIR

	spo2 := mapCalibration(r)
	if quality < spo2QualityThreshold {
		spo2 = (spo2 + spo2Fallback) / 2
	}

	if spo2 < spo2Min {
		return spo2Min
	}
	if spo2 > spo2Max {
		return spo2Max
	}
	return spo2
}

// mapCalibration 分段线性插值标定曲线
func mapCalibration(r float64) float64 {
	if r <= spo2Curve[0].r {
		return spo2Curve[0].spo2
	}
	last := spo2Curve[len(spo2Curve)-1]
	if r >= last.r {
		return last.spo2
	}
	for i := 1; i < len(spo2Curve); i++ {
		if r <= spo2Curve[i].r {
			lo, hi := spo2Curve[i-1], spo2Curve[i]
			frac := (r - lo.r) / (hi.r - lo.r)
			return lo.spo2 + frac*(hi.spo2-lo.spo2)
		}
	}
	return last.spo2
}
