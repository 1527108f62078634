package rewards

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var planSizePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(TB|GB|MB)`)

// WholeGB extracts the data size from a plan's display name and truncates it
// to whole gigabytes. "2.3GB Monthly" yields 2, "500MB" and "0.9GB" yield 0.
// Names with no recognizable size yield 0.
func WholeGB(planName string) int {
	match := planSizePattern.FindStringSubmatch(planName)
	if match == nil {
		return 0
	}

	size, err := decimal.NewFromString(match[1])
	if err != nil {
		return 0
	}

	switch strings.ToUpper(match[2]) {
	case "TB":
		size = size.Mul(decimal.NewFromInt(1024))
	case "MB":
		size = size.Div(decimal.NewFromInt(1024))
	}

	whole := size.Floor().IntPart()
	if whole < 0 {
		return 0
	}
	return int(whole)
}
