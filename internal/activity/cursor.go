package activity

import "time"

// cursor はカレンダーの選択状態を表す。
// 選択年（グリッド表示）と選択日（日表示）は独立に移動できる。
// 選択日は年・月・日を素のまま保持し、表示用の正規化は
// selectedDate()で行う。生の値を保持することで、年移動の往復
// （+n して -n）が常に元の選択日に戻ることを保証する。
type cursor struct {
	year int // 選択年

	// 選択日の生の値。dateYear=2024, dateMonth=2, dateDay=29 のような
	// 移動後に実在しない組み合わせも取り得る。
	dateYear  int
	dateMonth time.Month
	dateDay   int
}

// newCursor は指定日時を初期選択としたcursorを返す。
func newCursor(now time.Time) cursor {
	return cursor{
		year:      now.Year(),
		dateYear:  now.Year(),
		dateMonth: now.Month(),
		dateDay:   now.Day(),
	}
}

// setDate は選択日を丸ごと置き換える。
func (c *cursor) setDate(date time.Time) {
	c.dateYear = date.Year()
	c.dateMonth = date.Month()
	c.dateDay = date.Day()
}

// shiftYear は選択年をoffsetだけ移動する。
// 表示の一貫性のため選択日の年も同じだけ移動し、月日は保持する。
func (c *cursor) shiftYear(offset int) {
	c.year += offset
	c.dateYear += offset
}

// shiftDay は選択日をoffset日移動する。月・年の繰り上がりは暦に従う。
// 移動の起点は正規化後の日付（2/29が実在しない年ではロールフォワード
// 済みの3/1）。移動後は常に実在する日付になる。
func (c *cursor) shiftDay(offset int) {
	d := c.selectedDate().AddDate(0, 0, offset)
	c.setDate(d)
}

// selectedDate は選択日を実在する日付に正規化して返す。
// 実在しない組み合わせは2月29日が非うるう年に移動した場合のみで、
// 3月1日へロールフォワードする。
func (c *cursor) selectedDate() time.Time {
	month, day := c.dateMonth, c.dateDay
	if month == time.February && day == 29 && !isLeapYear(c.dateYear) {
		month, day = time.March, 1
	}
	return time.Date(c.dateYear, month, day, 0, 0, 0, 0, time.UTC)
}

// isLeapYear はグレゴリオ暦のうるう年判定を行う。
func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
