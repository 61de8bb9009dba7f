// Package format 提供时长换算与展示格式。
//
// 统一使用工作日历：1 天 = 8 小时，1 周 = 5 天，1 月 = 4 周，1 年 = 12 月。
package format

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	MinutesPerHour = 60
	HoursPerDay    = 8
	DaysPerWeek    = 5
	WeeksPerMonth  = 4
	MonthsPerYear  = 12

	MinutesPerDay   = HoursPerDay * MinutesPerHour
	MinutesPerWeek  = DaysPerWeek * MinutesPerDay
	MinutesPerMonth = WeeksPerMonth * MinutesPerWeek
	MinutesPerYear  = MonthsPerYear * MinutesPerMonth
)

// ZeroDuration 总时长 <= 0 时的展示
const ZeroDuration = "0m"

// Parts 编辑表单中的复合时长
type Parts struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// Flatten 换算为分钟数
func Flatten(p Parts) int {
	return p.Days*MinutesPerDay + p.Hours*MinutesPerHour + p.Minutes
}

// Split 将分钟数拆回复合时长，<= 0 返回零值
func Split(totalMinutes int) Parts {
	if totalMinutes <= 0 {
		return Parts{}
	}
	return Parts{
		Days:    totalMinutes / MinutesPerDay,
		Hours:   totalMinutes % MinutesPerDay / MinutesPerHour,
		Minutes: totalMinutes % MinutesPerHour,
	}
}

type unit struct {
	suffix  string
	minutes int
}

// 从大到小
var units = []unit{
	{"y", MinutesPerYear},
	{"mo", MinutesPerMonth},
	{"w", MinutesPerWeek},
	{"d", MinutesPerDay},
	{"h", MinutesPerHour},
	{"m", 1},
}

// Duration 选取 >= 1 的最大单位，附带下一级单位的余数，例如 "2mo 3w"、"1d 4h"。
// 余数为 0 时省略。
func Duration(totalMinutes int) string {
	if totalMinutes <= 0 {
		return ZeroDuration
	}
	for i, u := range units {
		if totalMinutes < u.minutes {
			continue
		}
		major := totalMinutes / u.minutes
		parts := []string{fmt.Sprintf("%d%s", major, u.suffix)}
		if i+1 < len(units) {
			next := units[i+1]
			if minor := totalMinutes % u.minutes / next.minutes; minor > 0 {
				parts = append(parts, fmt.Sprintf("%d%s", minor, next.suffix))
			}
		}
		return strings.Join(parts, " ")
	}
	return ZeroDuration
}

var salaryPrinter = message.NewPrinter(language.English)

// Salary 年薪展示，<= 0 返回空串
func Salary(amount float64) string {
	if amount <= 0 {
		return ""
	}
	if amount == float64(int64(amount)) {
		return salaryPrinter.Sprintf("$%d/yr", int64(amount))
	}
	return salaryPrinter.Sprintf("$%.2f/yr", amount)
}

// Percentage 百分比展示，保留一位小数
func Percentage(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
