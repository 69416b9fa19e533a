package utils

import (
	"errors"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrSlotDuration     = errors.New("slot duration must be positive")
)

// LabelLayout — формат метки слота "ЧЧ:ММ".
const LabelLayout = "15:04"

// TimeRange представляет временной интервал [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange создаёт интервал и делает простую валидацию.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start, End: end}, nil
}

// ClockRange строит интервал внутри условных суток по часам и минутам.
// Используется для шаблонов расписания, где дата не важна.
func ClockRange(startH, startM, endH, endM int) (TimeRange, error) {
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	return NewTimeRange(
		base.Add(time.Duration(startH)*time.Hour+time.Duration(startM)*time.Minute),
		base.Add(time.Duration(endH)*time.Hour+time.Duration(endM)*time.Minute),
	)
}

// SplitToTimeSlots разбивает интервал на слоты фиксированной длительности.
// "Хвост" меньшей длительности, чем slotDuration, отбрасывается.
func SplitToTimeSlots(tr TimeRange, slotDuration time.Duration) ([]TimeRange, error) {
	if slotDuration <= 0 {
		return nil, ErrSlotDuration
	}
	if !tr.End.After(tr.Start) {
		return []TimeRange{}, nil
	}

	var slots []TimeRange
	for cur := tr.Start; !cur.Add(slotDuration).After(tr.End); cur = cur.Add(slotDuration) {
		slots = append(slots, TimeRange{Start: cur, End: cur.Add(slotDuration)})
	}
	return slots, nil
}

// StartLabels возвращает метки начала слотов ("09:00", "09:15", ...).
func StartLabels(slots []TimeRange) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start.Format(LabelLayout))
	}
	return out
}
