package services

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bankr/cmd/client/dto"
)

// 이 파일의 함수는 모두 순수 함수다. 네트워크, 시계, 전역 상태에 의존하지 않으며
// 현재 시각이 필요하면 인자로 받는다.

// -------------------- Tips --------------------

type tipTagRule struct {
	tag      string
	keywords []string
}

// 순서가 의미를 가진다. 처음 일치한 그룹이 태그가 된다.
var tipTagRules = []tipTagRule{
	{"Subscriptions", []string{"subscription"}},
	{"Food", []string{"meal", "food", "dine", "cook", "doordash", "restaurant", "grocery"}},
	{"Transportation", []string{"gas", "transport", "uber", "lyft", "carpool", "fuel"}},
	{"Insurance", []string{"insurance"}},
	{"Shopping", []string{"shop", "cashback", "amazon"}},
	{"Utilities", []string{"internet", "utility", "bill"}},
	{"Entertainment", []string{"entertainment", "streaming", "netflix"}},
}

const (
	tipDefaultTag      = "General"
	tipHighlightLabel  = "Potential Savings"
	tipNoSavingsData   = "No savings data"
	tipCheckDetails    = "Check details"
	tipSeeDetails      = "See details"
	storyTimelineWeek  = "this week"
	storyTimelineMonth = "this month"
	storyTimelineOlder = "earlier"
)

var (
	savingsPattern         = regexp.MustCompile(`(?i)(?:at least|up to|around)?\s*\$?([\d,]+(?:\.\d+)?)\s*(?:–\s*\$?([\d,]+(?:\.\d+)?))?\s*(?:/ ?|per ?)?(month|week|year|monthly|weekly|yearly)?`)
	savingsFallbackPattern = regexp.MustCompile(`\$[\d",.]+`)
)

// TipTag 는 제목과 본문에 포함된 키워드로 팁 카테고리를 정한다.
func TipTag(title, content string) string {
	text := strings.ToLower(title + " " + content)
	for _, rule := range tipTagRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.tag
			}
		}
	}
	return tipDefaultTag
}

// ExtractSavingsHighlight 는 자유 형식의 절감액 문구에서 표시용 금액을 뽑는다.
//
//	"You could save at least $50 – $75 per month" -> "At least $50–$75/month"
//	"Switching could save $240 per year"          -> "$240/year"
//
// 금액 패턴이 없고 '$' 만 있으면 첫 줄의 첫 '$' 토큰, 그것도 없으면 "See details".
// 금액도 '$' 도 없으면 "Check details".
func ExtractSavingsHighlight(raw string) string {
	if m := savingsPattern.FindStringSubmatch(raw); m != nil {
		low := strings.ReplaceAll(m[1], ",", "")
		high := strings.ReplaceAll(m[2], ",", "")

		periodRaw := strings.ToLower(m[3])
		period := ""
		switch {
		case strings.Contains(periodRaw, "month"):
			period = "/month"
		case strings.Contains(periodRaw, "week"):
			period = "/week"
		case strings.Contains(periodRaw, "year"):
			period = "/year"
		}

		base := "$" + low
		if high != "" {
			base = "$" + low + "–$" + high
		}
		lower := strings.ToLower(raw)
		if strings.Contains(lower, "at least") {
			base = "At least " + base
		} else if strings.Contains(lower, "up to") {
			base = "Up to " + base
		}
		return base + period
	}

	if strings.Contains(raw, "$") {
		firstLine, _, _ := strings.Cut(raw, "\n")
		if fb := savingsFallbackPattern.FindString(firstLine); fb != "" {
			return fb
		}
		return tipSeeDetails
	}
	return tipCheckDetails
}

func TransformTip(tip dto.Tip) dto.TransformedTip {
	raw := tip.PotentialSavings
	if raw == "" {
		raw = tipNoSavingsData
	}
	return dto.TransformedTip{
		ID:              tip.ID,
		Header:          tip.Title,
		Text:            tip.Content,
		Tag:             TipTag(tip.Title, tip.Content),
		HighlightLabel:  tipHighlightLabel,
		Highlight:       ExtractSavingsHighlight(raw),
		FullSavingsText: strings.TrimSpace(raw),
	}
}

func TransformTips(tips []dto.Tip) []dto.TransformedTip {
	out := make([]dto.TransformedTip, 0, len(tips))
	for _, t := range tips {
		out = append(out, TransformTip(t))
	}
	return out
}

// -------------------- Stories --------------------

var (
	insightDirectionPattern = regexp.MustCompile(`(?i)(\d+)%\s*(Decrease|Increase)`)
	insightTotalPattern     = regexp.MustCompile(`(?i)Total Spent:\s*\$?([\d,]+\.?\d*)`)
	insightCountPattern     = regexp.MustCompile(`(?i)Transactions:\s*(\d+)`)
	insightDollarPattern    = regexp.MustCompile(`\$[\d,]+\.?\d*`)
	insightMoneyPattern     = regexp.MustCompile(`([\d,]+\.\d{2})`)
	insightPercentPattern   = regexp.MustCompile(`\d+%`)
)

// ExtractInsightValue 는 key stat 문자열에서 카드에 크게 보여줄 값을 뽑는다.
// 방향이 있는 퍼센트, "Total Spent: $X", "Transactions: N", 달러 금액,
// 소수 둘째 자리 숫자, 퍼센트 순으로 시도하고 모두 실패하면 원문을 줄여서 돌려준다.
func ExtractInsightValue(keyStat string) string {
	if m := insightDirectionPattern.FindStringSubmatch(keyStat); m != nil {
		if strings.EqualFold(m[2], "decrease") {
			return "-" + m[1] + "%"
		}
		return "+" + m[1] + "%"
	}
	if m := insightTotalPattern.FindStringSubmatch(keyStat); m != nil {
		return "$" + m[1]
	}
	if m := insightCountPattern.FindStringSubmatch(keyStat); m != nil {
		return m[1]
	}
	if m := insightDollarPattern.FindString(keyStat); m != "" {
		return m
	}
	if m := insightMoneyPattern.FindStringSubmatch(keyStat); m != nil {
		return "$" + m[1]
	}
	if m := insightPercentPattern.FindString(keyStat); m != "" {
		return m
	}

	first, _, _ := strings.Cut(keyStat, "|")
	first = strings.TrimSpace(first)
	if len([]rune(first)) < 20 {
		return first
	}
	runes := []rune(keyStat)
	if len(runes) > 15 {
		runes = runes[:15]
	}
	return string(runes) + "..."
}

// StoryTimeline 은 생성 후 경과 일수로 구간을 정한다. 7일 이하, 30일 이하, 그 이상.
func StoryTimeline(createdAt, now time.Time) string {
	days := int(math.Floor(now.Sub(createdAt).Hours() / 24))
	switch {
	case days > 30:
		return storyTimelineOlder
	case days > 7:
		return storyTimelineMonth
	default:
		return storyTimelineWeek
	}
}

func TransformStory(story dto.Story, now time.Time) dto.TransformedStory {
	text := story.Story
	if text == "" {
		text = story.Summary
	}
	return dto.TransformedStory{
		Timeline:     StoryTimeline(story.CreatedAt, now),
		Header:       story.Title,
		Text:         text,
		InsightValue: ExtractInsightValue(story.KeyStat),
	}
}

func TransformStories(stories []dto.Story, now time.Time) []dto.TransformedStory {
	out := make([]dto.TransformedStory, 0, len(stories))
	for _, s := range stories {
		out = append(out, TransformStory(s, now))
	}
	return out
}

// -------------------- Transactions --------------------

var hundred = decimal.NewFromInt(100)

// roundHalfUp 는 .5 를 항상 +무한대 방향으로 올린다. (-2.5 -> -2)
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Add(decimal.NewFromFloat(0.5)).Floor().IntPart()
}

// percentChange 는 이전 값이 0 이하이면 0 을 돌려준다.
func percentChange(current, previous decimal.Decimal) int64 {
	if !previous.IsPositive() {
		return 0
	}
	return roundHalfUp(current.Sub(previous).Div(previous).Mul(hundred))
}

func sumAmounts(txs []dto.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}

// CalculateOverviewMetrics 는 현재 기간과 비교 기간 거래로 개요 지표를 계산한다.
// 절감액은 남은 예산(음수면 0)으로 추정한다.
func CalculateOverviewMetrics(current, previous []dto.Transaction, monthlyBudget decimal.Decimal) dto.OverviewMetrics {
	totalSpent := sumAmounts(current)
	previousSpent := sumAmounts(previous)

	budgetRemaining := monthlyBudget.Sub(totalSpent)
	previousRemaining := monthlyBudget.Sub(previousSpent)

	saved := decimal.Max(budgetRemaining, decimal.Zero)
	previousSaved := decimal.Max(previousRemaining, decimal.Zero)

	return dto.OverviewMetrics{
		TotalSpent:       totalSpent.Abs(),
		BudgetRemaining:  decimal.Max(budgetRemaining, decimal.Zero),
		TransactionCount: len(current),
		SavedThisMonth:   saved,
		PercentChanges: dto.PercentChanges{
			TotalSpent:      percentChange(totalSpent, previousSpent),
			BudgetRemaining: percentChange(budgetRemaining, previousRemaining),
			SavedThisMonth:  percentChange(saved, previousSaved),
		},
	}
}

// GenerateSpendingTrend 는 now 를 마지막 날로 하는 days 일짜리 일별 지출 시계열을 만든다.
// 거래 날짜는 'T' 앞의 YYYY-MM-DD 부분으로 묶고 금액은 절대값으로 더한다.
func GenerateSpendingTrend(txs []dto.Transaction, days int, now time.Time) dto.SpendingTrend {
	if days < 0 {
		days = 0
	}
	start := now.AddDate(0, 0, -days+1)

	keys := make([]string, 0, days)
	index := make(map[string]int, days)
	labels := make([]string, 0, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		key := d.Format(time.DateOnly)
		index[key] = len(keys)
		keys = append(keys, key)
		labels = append(labels, d.Format("Mon"))
	}

	sums := make([]decimal.Decimal, len(keys))
	for i := range sums {
		sums[i] = decimal.Zero
	}
	for _, t := range txs {
		key, _, _ := strings.Cut(t.Date, "T")
		if i, ok := index[key]; ok {
			sums[i] = sums[i].Add(t.Amount.Abs())
		}
	}

	data := make([]float64, 0, len(sums))
	for _, s := range sums {
		data = append(data, s.InexactFloat64())
	}
	if len(data) == 0 {
		data = []float64{0}
	}

	return dto.SpendingTrend{
		Labels:   labels,
		Datasets: []dto.TrendDataset{{Data: data, StrokeWidth: 2}},
	}
}

type categoryColor struct {
	icon       string
	background string
}

const otherCategory = "Other"

var categoryColors = map[string]categoryColor{
	"FOOD_AND_DRINK":      {"#f2be2e", "#f5ead5"},
	"GENERAL_MERCHANDISE": {"#037017", "#d5f5dc"},
	"TRANSPORTATION":      {"#2793f2", "#d5e3f5"},
	"GENERAL_SERVICES":    {"#7635f0", "#e0d5f5"},
	"ENTERTAINMENT":       {"#202021", "#bebdbf"},
	otherCategory:         {"#565657", "#cfcfd4"},
}

var categoryNames = map[string]string{
	"FOOD_AND_DRINK":      "Dining & Coffee",
	"GENERAL_MERCHANDISE": "Shopping",
	"TRANSPORTATION":      "Transportation",
	"GENERAL_SERVICES":    "Utilities",
	"ENTERTAINMENT":       "Entertainment",
}

// maxCategories 는 개요 화면에 보여주는 카테고리 수다.
const maxCategories = 6

// FormatCategoryName 은 FOOD_AND_DRINK 같은 카테고리 코드를 표시 이름으로 바꾼다.
// 알려지지 않은 코드는 '_' 단위로 나눠 첫 글자만 남기고 나머지를 소문자로 바꾼다.
func FormatCategoryName(category string) string {
	if category == "" || category == "null" {
		return otherCategory
	}
	if name, ok := categoryNames[category]; ok {
		return name
	}
	words := strings.Split(category, "_")
	for i, w := range words {
		r := []rune(w)
		if len(r) == 0 {
			continue
		}
		words[i] = string(r[0]) + strings.ToLower(string(r[1:]))
	}
	return strings.Join(words, " ")
}

func categoryKey(t dto.Transaction) string {
	if t.PersonalFinanceCategory == "" {
		return otherCategory
	}
	return t.PersonalFinanceCategory
}

// CategorizeTransactions 는 카테고리별 지출 합계와 전체 대비 비율을 계산해
// 비율 내림차순 상위 6개를 돌려준다. 비율이 같으면 먼저 나온 카테고리가 앞선다.
func CategorizeTransactions(txs []dto.Transaction) []dto.SpendingCategory {
	order := make([]string, 0)
	totals := make(map[string]decimal.Decimal)
	for _, t := range txs {
		key := categoryKey(t)
		if _, ok := totals[key]; !ok {
			order = append(order, key)
			totals[key] = decimal.Zero
		}
		totals[key] = totals[key].Add(t.Amount.Abs())
	}

	all := decimal.Zero
	for _, v := range totals {
		all = all.Add(v)
	}

	out := make([]dto.SpendingCategory, 0, len(order))
	for _, key := range order {
		total := totals[key]
		colors, ok := categoryColors[key]
		if !ok {
			colors = categoryColors[otherCategory]
		}
		var percent int64
		if all.IsPositive() {
			percent = roundHalfUp(total.Div(all).Mul(hundred))
		}
		out = append(out, dto.SpendingCategory{
			Title:               FormatCategoryName(key),
			Amount:              "$" + total.StringFixed(2),
			PercentValue:        percent,
			Type:                strings.ToLower(key),
			IconColor:           colors.icon,
			IconBackgroundColor: colors.background,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].PercentValue > out[j].PercentValue })
	if len(out) > maxCategories {
		out = out[:maxCategories]
	}
	return out
}

// noTopCategory 는 오늘 지출이 없을 때의 대표 카테고리 표시다.
const noTopCategory = "None"

func settled(txs []dto.Transaction) []dto.Transaction {
	out := make([]dto.Transaction, 0, len(txs))
	for _, t := range txs {
		if !t.Pending {
			out = append(out, t)
		}
	}
	return out
}

// spendOnly 는 양수(지출) 금액만 남긴다. 음수는 환불/입금이다.
func spendOnly(txs []dto.Transaction) (decimal.Decimal, int, map[string]decimal.Decimal, []string) {
	total := decimal.Zero
	count := 0
	byCategory := make(map[string]decimal.Decimal)
	order := make([]string, 0)
	for _, t := range txs {
		if !t.Amount.IsPositive() {
			continue
		}
		total = total.Add(t.Amount)
		count++
		key := categoryKey(t)
		if _, ok := byCategory[key]; !ok {
			order = append(order, key)
			byCategory[key] = decimal.Zero
		}
		byCategory[key] = byCategory[key].Add(t.Amount)
	}
	return total, count, byCategory, order
}

// CalculateDailyRecap 은 오늘 지출 요약과 어제 대비 증감률을 계산한다.
// 미확정(pending) 거래는 제외한다. 어제 지출이 0 이고 오늘 지출이 있으면 100% 증가로 본다.
func CalculateDailyRecap(today, yesterday []dto.Transaction, now time.Time) dto.DailyRecap {
	todayTotal, count, byCategory, order := spendOnly(settled(today))
	yesterdayTotal, _, _, _ := spendOnly(settled(yesterday))

	top := noTopCategory
	topAmount := decimal.Zero
	for _, key := range order {
		if byCategory[key].GreaterThan(topAmount) {
			top = FormatCategoryName(key)
			topAmount = byCategory[key]
		}
	}

	var comparison int64
	higher := false
	diff := todayTotal.Sub(yesterdayTotal)
	switch {
	case yesterdayTotal.IsPositive():
		comparison = roundHalfUp(diff.Div(yesterdayTotal).Mul(hundred))
		higher = diff.IsPositive()
	case todayTotal.IsPositive():
		comparison = 100
		higher = true
	}
	if comparison < 0 {
		comparison = -comparison
	}

	return dto.DailyRecap{
		Date:              now.Format("January 2, 2006"),
		TotalSpent:        todayTotal.Abs(),
		TransactionCount:  count,
		TopCategory:       top,
		ComparisonPercent: comparison,
		IsHigher:          higher,
	}
}

// periodDays 는 기간 이름별 일수다. month 는 달력 기준 한 달이라 여기 없다.
var periodDays = map[string]int{
	PeriodWeek:    7,
	PeriodTwoWeek: 14,
}

const (
	PeriodWeek    = "week"
	PeriodTwoWeek = "2week"
	PeriodMonth   = "month"
)

// PeriodRange 는 기간 이름에 해당하는 [start, end] 날짜(YYYY-MM-DD)를 돌려준다.
// back 이 1 이면 바로 이전 같은 길이의 구간이다.
func PeriodRange(period string, now time.Time, back int) (start, end string, err error) {
	var s, e time.Time
	switch period {
	case PeriodMonth:
		e = now.AddDate(0, -back, 0)
		s = now.AddDate(0, -(back + 1), 0)
	default:
		days, ok := periodDays[period]
		if !ok {
			return "", "", fmt.Errorf("unknown period %q", period)
		}
		e = now.AddDate(0, 0, -days*back)
		s = now.AddDate(0, 0, -days*(back+1))
	}
	return s.Format(time.DateOnly), e.Format(time.DateOnly), nil
}

// TrendDays 는 기간 이름에 맞는 추이 차트 일수다.
func TrendDays(period string, now time.Time) int {
	if period == PeriodMonth {
		return int(math.Round(now.Sub(now.AddDate(0, -1, 0)).Hours() / 24))
	}
	if d, ok := periodDays[period]; ok {
		return d
	}
	return 7
}
