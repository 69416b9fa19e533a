// Package seed заполняет справочник врачей клиники.
package seed

import (
	"context"
	"fmt"

	"gorm.io/datatypes"

	"github.com/Leganyst/clinic-calendar/internal/model"
	"github.com/Leganyst/clinic-calendar/internal/repository"
	"github.com/Leganyst/clinic-calendar/internal/schedule"
)

var (
	morning   = schedule.MustRange("09:00", "12:00")
	afternoon = schedule.MustRange("13:00", "17:00")
	full      = append(append([]string{}, morning...), afternoon...)
	off       = []string{}
)

type doctor struct {
	id, name, department string
	// пн..пт; суббота и воскресенье всегда выходные
	week [5][]string
}

var doctors = []doctor{
	{"doc_cardiology_01", "山田 太郎", "循環器内科", [5][]string{full, full, morning, full, morning}},
	{"doc_cardiology_02", "佐藤 花子", "循環器内科", [5][]string{afternoon, morning, full, off, full}},
	{"doc_gastro_01", "鈴木 一郎", "消化器内科", [5][]string{full, full, off, full, full}},
	{"doc_respiratory_01", "高橋 美咲", "呼吸器内科", [5][]string{afternoon, full, morning, afternoon, morning}},
	{"doc_nephrology_01", "伊藤 健", "腎臓内科", [5][]string{full, off, full, full, morning}},
	{"doc_neurology_01", "渡辺 直子", "神経内科", [5][]string{morning, full, afternoon, full, afternoon}},
	{"doc_ortho_01", "中村 大輔", "整形外科", [5][]string{full, full, full, morning, full}},
	{"doc_ortho_02", "小林 恵子", "整形外科", [5][]string{off, afternoon, morning, full, afternoon}},
	{"doc_ophthalmology_01", "加藤 翔太", "眼科", [5][]string{full, morning, full, afternoon, full}},
	{"doc_oto_01", "吉田 優", "耳鼻咽喉科", [5][]string{full, full, morning, full, afternoon}},
	{"doc_dermatology_01", "松本 彩", "皮膚科", [5][]string{afternoon, full, full, morning, full}},
	{"doc_urology_01", "井上 誠", "泌尿器科", [5][]string{full, morning, afternoon, full, full}},
	{"doc_pediatrics_01", "木村 由美", "小児科", [5][]string{full, full, full, morning, full}},
	{"doc_pediatrics_02", "林 拓也", "小児科", [5][]string{off, afternoon, morning, full, afternoon}},
	{"doc_obstetrics_01", "斎藤 香織", "産婦人科", [5][]string{full, morning, full, afternoon, full}},
	{"doc_radiology_01", "山口 聡", "画像診断・検査", [5][]string{full, full, full, full, full}},
	{"doc_lab_01", "松田 裕子", "臨床検査", [5][]string{full, full, full, full, full}},
	{"doc_rehab_01", "石川 浩二", "リハビリテーション科", [5][]string{full, full, full, full, full}},
}

// Doctors возвращает справочник врачей как модели.
func Doctors() []model.Provider {
	out := make([]model.Provider, 0, len(doctors))
	for _, d := range doctors {
		w := schedule.Weekly{schedule.Sat: off, schedule.Sun: off}
		for i, key := range schedule.Keys[:5] {
			w[key] = d.week[i]
		}
		out = append(out, model.Provider{
			ID:         d.id,
			Name:       d.name,
			Department: d.department,
			Schedules:  datatypes.NewJSONType(w),
		})
	}
	return out
}

// Seed создаёт или обновляет всех врачей справочника. Повторный запуск безопасен.
func Seed(ctx context.Context, providers repository.ProviderRepository) (int, error) {
	list := Doctors()
	for i := range list {
		if err := providers.Upsert(ctx, &list[i]); err != nil {
			return i, fmt.Errorf("seed %s: %w", list[i].ID, err)
		}
	}
	return len(list), nil
}
