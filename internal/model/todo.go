package model

import "time"

// Todo は1件の学習予定を表す。
// サーバー確定後の値のみをストアが保持する（編集はこのコアの範囲外）。
type Todo struct {
	ID        int64  `json:"id"`
	ProfileID string `json:"profileId"`
	Date      string `json:"date"` // YYYY-MM-DD
	LectureID int64  `json:"lectureId"`
	Finished  bool   `json:"finished"`
}

// ContributionLevel は活動量を量子化した段階を表す。
type ContributionLevel int

// ContributionDay は1日分の活動実績を表す。
// Levelは常にCountから導出され、単独で保存されることはない。
type ContributionDay struct {
	Date  time.Time
	Count int
	Level ContributionLevel
}

// RawContribution はバックエンドが返す量子化前の活動データを表す。
type RawContribution struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// LevelFunc は活動数から段階を導出する純粋関数。
// 単調な階段関数であることが呼び出し側の前提。
type LevelFunc func(count int) ContributionLevel

// DefaultLevelFunc は既定の閾値による段階導出を返す。
// 0 → 0、1〜2 → 1、3〜5 → 2、6以上 → 3。
func DefaultLevelFunc() LevelFunc {
	return LevelThresholds{Low: 1, Mid: 3, High: 6}.Level
}

// LevelThresholds は段階導出の閾値設定。
// Low未満が段階0、Mid未満が段階1、High未満が段階2、それ以上が段階3。
type LevelThresholds struct {
	Low  int
	Mid  int
	High int
}

// Level は閾値設定に基づいて活動数を段階に変換する。
func (t LevelThresholds) Level(count int) ContributionLevel {
	switch {
	case count < t.Low:
		return 0
	case count < t.Mid:
		return 1
	case count < t.High:
		return 2
	default:
		return 3
	}
}
