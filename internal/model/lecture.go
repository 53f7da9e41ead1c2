package model

import "time"

// Lecture は講義の概要を表す。検索結果や進行中一覧に使われる形。
type Lecture struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Lecturer     string  `json:"lecturer"`
	SourceName   string  `json:"sourceName"`
	SourceURL    string  `json:"sourceUrl"`
	ImageURL     string  `json:"imageUrl"`
	Description  string  `json:"description"` // HTML断片の場合がある
	CurrentPrice int     `json:"currentPrice"`
	Rating       float64 `json:"rating"`
}

// InProgressItem はブックマーク済みで未完了の講義を表す。
type InProgressItem struct {
	BookmarkID int64   `json:"bookmarkId"`
	Lecture    Lecture `json:"lecture"`
}

// Bookmark はブックマーク登録APIのレスポンスを表す。
type Bookmark struct {
	ID        int64  `json:"id"`
	LectureID int64  `json:"lectureId"`
	Status    string `json:"status"` // "todo", "in-progress", "done"
}

// Review は講義レビューを表す。
type Review struct {
	ID        int64     `json:"id"`
	LectureID int64     `json:"lectureId"`
	ProfileID string    `json:"profileId"`
	Content   string    `json:"content"`
	Rating    float64   `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

// TimelineEntry はフォロー中ユーザーの活動1件を表す。
type TimelineEntry struct {
	ID           int64     `json:"id"`
	ProfileID    string    `json:"profileId"`
	Nickname     string    `json:"nickname"`
	LectureTitle string    `json:"lectureTitle"`
	Action       string    `json:"action"` // "bookmark", "done", "review" 等
	CreatedAt    time.Time `json:"createdAt"`
}

// TimelinePage はページングされたタイムラインのレスポンスを表す。
type TimelinePage struct {
	Entries  []TimelineEntry `json:"entries"`
	Page     int             `json:"page"`
	HasNext  bool            `json:"hasNext"`
	PageSize int             `json:"size"`
}
