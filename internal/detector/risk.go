package detector

// RiskLevel 是综合得分映射出的风险等级。
type RiskLevel string

const (
	RiskNone     RiskLevel = "None"
	RiskVeryLow  RiskLevel = "Very low"
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// ClassifyRisk 将综合得分映射到风险等级。
// 区间为左闭右开：恰好落在边界上的得分进入较高一档。
// 该函数对 [0,100] 内的所有取值有定义；越界取值属于聚合阶段的前置条件违规。
func ClassifyRisk(score float64) RiskLevel {
	switch {
	case score == 0:
		return RiskNone
	case score < 10:
		return RiskVeryLow
	case score < 25:
		return RiskLow
	case score < 50:
		return RiskModerate
	case score < 75:
		return RiskHigh
	default:
		return RiskCritical
	}
}
