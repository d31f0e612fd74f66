package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRisk(t *testing.T) {
	cases := []struct {
		score float64
		want  RiskLevel
	}{
		{0, RiskNone},
		{0.01, RiskVeryLow},
		{9.99, RiskVeryLow},
		{10, RiskLow},
		{24.99, RiskLow},
		{25, RiskModerate},
		{49.99, RiskModerate},
		{50, RiskHigh},
		{74.99, RiskHigh},
		{75, RiskCritical},
		{100, RiskCritical},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyRisk(tc.score), "score=%v", tc.score)
	}
}
