package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Difficulty は書籍の難易度を表す。
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid は難易度が定義済みの値かを返す。空文字はバックエンドのデフォルトに委ねるため許容する。
func (d Difficulty) Valid() bool {
	switch d {
	case "", DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// QuestionType はクイズ設問の形式を表す。
type QuestionType string

const (
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionMultiChoice  QuestionType = "multi_choice"
	QuestionOrdering     QuestionType = "ordering"
	QuestionMatching     QuestionType = "matching"
)

// Valid は設問形式が定義済みの値かを返す。
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingleChoice, QuestionMultiChoice, QuestionOrdering, QuestionMatching:
		return true
	}
	return false
}

// FlexInt はJSONの数値と数値文字列の両方を受け付ける整数型。
// 管理UIのフォーム入力は "3" のような文字列で届くことがあるため、
// 送信前に必ず数値へ正規化する。
type FlexInt int

// UnmarshalJSON は数値または数値文字列をintとしてデコードする。
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer value: %s", string(data))
	}
	*f = FlexInt(n)
	return nil
}

// MarshalJSON は常にJSON数値として出力する。
func (f FlexInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(f))
}

// Int はint値を返す。
func (f FlexInt) Int() int {
	return int(f)
}

// Book はバックエンドの書籍リソースを表す。
type Book struct {
	ID                   int        `json:"id"`
	Title                string     `json:"title"`
	Author               string     `json:"author"`
	Description          string     `json:"description,omitempty"`
	CoverImageURL        string     `json:"cover_image_url,omitempty"`
	Genre                string     `json:"genre,omitempty"`
	Difficulty           Difficulty `json:"difficulty,omitempty"`
	TotalChapters        int        `json:"total_chapters"`
	EstimatedReadingTime int        `json:"estimated_reading_time,omitempty"`
	Language             string     `json:"language,omitempty"`
	ChapterXP            int        `json:"chapter_xp"`
	CompletionXP         int        `json:"completion_xp"`
}

// Chapter はバックエンドの章リソースを表す。
type Chapter struct {
	ID                   int    `json:"id"`
	BookID               int    `json:"book_id"`
	ChapterNumber        int    `json:"chapter_number"`
	Title                string `json:"title"`
	Content              string `json:"content"`
	EstimatedReadingTime int    `json:"estimated_reading_time,omitempty"`
}

// Quiz はバックエンドのクイズリソースを表す。章ごとに最大1つ。
type Quiz struct {
	ID          int        `json:"id"`
	ChapterID   int        `json:"chapter_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	IsActive    bool       `json:"is_active"`
	QuizXP      int        `json:"quiz_xp,omitempty"`
	Questions   []Question `json:"questions"`
}

// Question はクイズの設問を表す。order_index順に並ぶ。
type Question struct {
	ID         int          `json:"id"`
	Type       QuestionType `json:"type"`
	Text       string       `json:"text"`
	OrderIndex int          `json:"order_index"`
	Score      int          `json:"score"`
	Options    []Option     `json:"options"`
}

// Option は設問の選択肢を表す。matching形式ではmatch_keyで対応付ける。
type Option struct {
	ID         int    `json:"id"`
	Text       string `json:"text"`
	IsCorrect  *bool  `json:"is_correct,omitempty"`
	OrderIndex *int   `json:"order_index,omitempty"`
	MatchKey   string `json:"match_key,omitempty"`
}
