package schedule

import (
	"fmt"
	"slices"
	"time"

	"github.com/Leganyst/clinic-calendar/internal/utils"
)

const SlotStep = 15 * time.Minute

// Grid — общая сетка слотов дня: 09:00 … 16:45, 32 метки.
// Фронтенд использует ту же сетку, менять её нельзя.
var Grid = mustGrid()

var gridIndex = func() map[string]int {
	m := make(map[string]int, len(Grid))
	for i, label := range Grid {
		m[label] = i
	}
	return m
}()

func mustGrid() []string {
	day, err := utils.ClockRange(9, 0, 17, 0)
	if err != nil {
		panic(err)
	}
	slots, err := utils.SplitToTimeSlots(day, SlotStep)
	if err != nil {
		panic(err)
	}
	return utils.StartLabels(slots)
}

// IsGridLabel проверяет, что метка входит в сетку.
func IsGridLabel(label string) bool {
	_, ok := gridIndex[label]
	return ok
}

// Ключи дней недели в JSON-расписании.
const (
	Mon = "mon"
	Tue = "tue"
	Wed = "wed"
	Thu = "thu"
	Fri = "fri"
	Sat = "sat"
	Sun = "sun"
)

var weekdayKeys = [...]string{Sun, Mon, Tue, Wed, Thu, Fri, Sat}

// Keys — ключи в порядке понедельник…воскресенье.
var Keys = []string{Mon, Tue, Wed, Thu, Fri, Sat, Sun}

// WeekdayKey возвращает ключ дня недели для даты.
func WeekdayKey(t time.Time) string {
	return weekdayKeys[t.Weekday()]
}

// Weekly — недельный шаблон врача: ключ дня → упорядоченные метки слотов.
type Weekly map[string][]string

// WorkingSlots возвращает метки слотов для дня недели, отсортированные по сетке.
// Неизвестные метки отбрасываются.
func (w Weekly) WorkingSlots(key string) []string {
	raw := w[key]
	out := make([]string, 0, len(raw))
	for _, label := range raw {
		if IsGridLabel(label) && !slices.Contains(out, label) {
			out = append(out, label)
		}
	}
	slices.SortFunc(out, func(a, b string) int { return gridIndex[a] - gridIndex[b] })
	return out
}

// IsWorking сообщает, работает ли врач в этот день недели в этот слот.
func (w Weekly) IsWorking(date time.Time, label string) bool {
	return slices.Contains(w[WeekdayKey(date)], label)
}

// Set строит индекс шаблона для быстрых проверок в циклах по сетке.
func (w Weekly) Set(key string) map[string]struct{} {
	raw := w[key]
	set := make(map[string]struct{}, len(raw))
	for _, label := range raw {
		set[label] = struct{}{}
	}
	return set
}

// Range строит метки слотов [from, to) с шагом SlotStep.
// from и to задаются как "ЧЧ:ММ".
func Range(from, to string) ([]string, error) {
	start, err := time.Parse(utils.LabelLayout, from)
	if err != nil {
		return nil, fmt.Errorf("parse from %q: %w", from, err)
	}
	end, err := time.Parse(utils.LabelLayout, to)
	if err != nil {
		return nil, fmt.Errorf("parse to %q: %w", to, err)
	}
	tr, err := utils.NewTimeRange(start, end)
	if err != nil {
		return nil, err
	}
	slots, err := utils.SplitToTimeSlots(tr, SlotStep)
	if err != nil {
		return nil, err
	}
	return utils.StartLabels(slots), nil
}

// MustRange как Range, но паникует. Для статических шаблонов.
func MustRange(from, to string) []string {
	labels, err := Range(from, to)
	if err != nil {
		panic(err)
	}
	return labels
}
