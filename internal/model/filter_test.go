package model

import "testing"

// TestHolidayFilter_EffectiveLimit はlimitのクランプ規則を検証する。
func TestHolidayFilter_EffectiveLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"ゼロはデフォルト", 0, DefaultListLimit},
		{"負値はデフォルト", -1, DefaultListLimit},
		{"範囲内はそのまま", 50, 50},
		{"上限ちょうど", MaxListLimit, MaxListLimit},
		{"上限超過は丸め", MaxListLimit + 1, MaxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := HolidayFilter{Limit: tt.limit}
			if got := f.EffectiveLimit(); got != tt.want {
				t.Errorf("EffectiveLimit() = %d, want %d", got, tt.want)
			}
		})
	}
}
