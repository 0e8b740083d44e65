package persist

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	priceRangeRe = regexp.MustCompile(`\$\s*(\d+(?:\.\d+)?)(?:\s*[-–]\s*\$?\s*(\d+(?:\.\d+)?))?`)

	numberRangeRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[-–]\s*\d+(?:\.\d+)?`)
	hoursRe       = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:hours?|hrs?|h)\b`)
	minutesRe     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:minutes?|mins?|m)\b`)
	bareNumberRe  = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// ParsePriceRange 解析 "$N" 或 "$N-M"（連字號或 en-dash）為最小與最大價格
// 無法解析時兩者皆為 nil
func ParsePriceRange(s string) (*float64, *float64) {
	m := priceRangeRe.FindStringSubmatch(s)
	if m == nil {
		return nil, nil
	}

	low, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, nil
	}
	high := low
	if m[2] != "" {
		if high, err = strconv.ParseFloat(m[2], 64); err != nil {
			return nil, nil
		}
	}
	if high < low {
		low, high = high, low
	}
	return &low, &high
}

// ParseCookTime 將 "30 minutes"、"1 hour 15 minutes"、"1.5 hours" 轉為分鐘；無法解析回傳 0
func ParseCookTime(s string) int {
	text := strings.ToLower(strings.TrimSpace(s))
	if text == "" {
		return 0
	}
	// 範圍取下限
	text = numberRangeRe.ReplaceAllString(text, "$1")

	if bareNumberRe.MatchString(text) {
		n, _ := strconv.ParseFloat(text, 64)
		return int(math.Round(n))
	}

	var total float64
	matched := false
	for _, m := range hoursRe.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			total += n * 60
			matched = true
		}
	}
	for _, m := range minutesRe.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			total += n
			matched = true
		}
	}
	if !matched {
		return 0
	}
	return int(math.Round(total))
}
