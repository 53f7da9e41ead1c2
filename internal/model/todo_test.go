package model

import "testing"

func TestLevelThresholds_Level(t *testing.T) {
	tests := []struct {
		name  string
		th    LevelThresholds
		count int
		want  ContributionLevel
	}{
		{name: "既定: 0件は段階0", th: LevelThresholds{Low: 1, Mid: 3, High: 6}, count: 0, want: 0},
		{name: "既定: 1件は段階1", th: LevelThresholds{Low: 1, Mid: 3, High: 6}, count: 1, want: 1},
		{name: "既定: 2件は段階1", th: LevelThresholds{Low: 1, Mid: 3, High: 6}, count: 2, want: 1},
		{name: "既定: 3件は段階2", th: LevelThresholds{Low: 1, Mid: 3, High: 6}, count: 3, want: 2},
		{name: "既定: 5件は段階2", th: LevelThresholds{Low: 1, Mid: 3, High: 6}, count: 5, want: 2},
		{name: "既定: 6件は段階3", th: LevelThresholds{Low: 1, Mid: 3, High: 6}, count: 6, want: 3},
		{name: "既定: 100件は段階3", th: LevelThresholds{Low: 1, Mid: 3, High: 6}, count: 100, want: 3},
		{name: "カスタム閾値", th: LevelThresholds{Low: 5, Mid: 10, High: 20}, count: 7, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.th.Level(tt.count); got != tt.want {
				t.Errorf("Level(%d) = %d, want %d", tt.count, got, tt.want)
			}
		})
	}
}

func TestDefaultLevelFunc_IsMonotonic(t *testing.T) {
	fn := DefaultLevelFunc()
	prev := fn(0)
	for count := 1; count <= 20; count++ {
		got := fn(count)
		if got < prev {
			t.Errorf("Level(%d) = %d < Level(%d) = %d", count, got, count-1, prev)
		}
		prev = got
	}
}
