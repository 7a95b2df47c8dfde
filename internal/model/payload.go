package model

// 各CRUDフォームのデータ契約を明示的なスキーマとして定義する。
// 必須フィールドはValidateで検査し、任意フィールドは更新系でポインタにして
// 「未指定」と「ゼロ値への更新」を区別する。

// BookPayload は書籍作成のリクエストボディ。
// title と author が必須。XP系とlanguageは未指定時バックエンドの
// デフォルト（chapter_xp=100, completion_xp=500, language="ru"）に委ねる。
type BookPayload struct {
	Title                string     `json:"title"`
	Author               string     `json:"author"`
	Description          string     `json:"description,omitempty"`
	CoverImageURL        string     `json:"cover_image_url,omitempty"`
	Genre                string     `json:"genre,omitempty"`
	Difficulty           Difficulty `json:"difficulty,omitempty"`
	TotalChapters        *int       `json:"total_chapters,omitempty"`
	EstimatedReadingTime *int       `json:"estimated_reading_time,omitempty"`
	Language             string     `json:"language,omitempty"`
	ChapterXP            *int       `json:"chapter_xp,omitempty"`
	CompletionXP         *int       `json:"completion_xp,omitempty"`
}

// Validate は必須フィールドと列挙値を検査する。
func (p *BookPayload) Validate() error {
	if p.Title == "" {
		return NewValidationError("title")
	}
	if p.Author == "" {
		return NewValidationError("author")
	}
	if !p.Difficulty.Valid() {
		return NewInvalidDifficultyError(string(p.Difficulty))
	}
	return nil
}

// BookUpdatePayload は書籍更新のリクエストボディ。全フィールド任意。
type BookUpdatePayload struct {
	Title                *string     `json:"title,omitempty"`
	Author               *string     `json:"author,omitempty"`
	Description          *string     `json:"description,omitempty"`
	CoverImageURL        *string     `json:"cover_image_url,omitempty"`
	Genre                *string     `json:"genre,omitempty"`
	Difficulty           *Difficulty `json:"difficulty,omitempty"`
	TotalChapters        *int        `json:"total_chapters,omitempty"`
	EstimatedReadingTime *int        `json:"estimated_reading_time,omitempty"`
	Language             *string     `json:"language,omitempty"`
	ChapterXP            *int        `json:"chapter_xp,omitempty"`
	CompletionXP         *int        `json:"completion_xp,omitempty"`
}

// Validate は指定されたフィールドのみ検査する。
func (p *BookUpdatePayload) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return NewValidationError("title")
	}
	if p.Author != nil && *p.Author == "" {
		return NewValidationError("author")
	}
	if p.Difficulty != nil && !p.Difficulty.Valid() {
		return NewInvalidDifficultyError(string(*p.Difficulty))
	}
	return nil
}

// ChapterPayload は章作成のリクエストボディ。
// book_id はフォーム由来の文字列入力（"3"など）を数値に強制変換する。
type ChapterPayload struct {
	BookID               FlexInt `json:"book_id"`
	ChapterNumber        FlexInt `json:"chapter_number"`
	Title                string  `json:"title"`
	Content              string  `json:"content"`
	EstimatedReadingTime *int    `json:"estimated_reading_time,omitempty"`
}

// Validate は必須フィールドを検査する。chapter_numberは1以上。
func (p *ChapterPayload) Validate() error {
	if p.BookID.Int() <= 0 {
		return NewValidationError("book_id")
	}
	if p.ChapterNumber.Int() < 1 {
		return NewValidationError("chapter_number")
	}
	if p.Title == "" {
		return NewValidationError("title")
	}
	if p.Content == "" {
		return NewValidationError("content")
	}
	return nil
}

// ChapterUpdatePayload は章更新のリクエストボディ。book_idは変更不可。
type ChapterUpdatePayload struct {
	ChapterNumber        *int    `json:"chapter_number,omitempty"`
	Title                *string `json:"title,omitempty"`
	Content              *string `json:"content,omitempty"`
	EstimatedReadingTime *int    `json:"estimated_reading_time,omitempty"`
}

// Validate は指定されたフィールドのみ検査する。
func (p *ChapterUpdatePayload) Validate() error {
	if p.ChapterNumber != nil && *p.ChapterNumber < 1 {
		return NewValidationError("chapter_number")
	}
	if p.Title != nil && *p.Title == "" {
		return NewValidationError("title")
	}
	if p.Content != nil && *p.Content == "" {
		return NewValidationError("content")
	}
	return nil
}

// QuizPayload はクイズ作成のリクエストボディ。
type QuizPayload struct {
	ChapterID   FlexInt `json:"chapter_id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	QuizXP      *int    `json:"quiz_xp,omitempty"`
}

// Validate は必須フィールドを検査する。
func (p *QuizPayload) Validate() error {
	if p.ChapterID.Int() <= 0 {
		return NewValidationError("chapter_id")
	}
	if p.Title == "" {
		return NewValidationError("title")
	}
	return nil
}

// QuizUpdatePayload はクイズ更新のリクエストボディ。chapter_idは変更不可。
type QuizUpdatePayload struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	QuizXP      *int    `json:"quiz_xp,omitempty"`
}

// Validate は指定されたフィールドのみ検査する。
func (p *QuizUpdatePayload) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return NewValidationError("title")
	}
	return nil
}

// QuestionPayload は設問作成のリクエストボディ。
type QuestionPayload struct {
	Type       QuestionType `json:"type"`
	Text       string       `json:"text"`
	OrderIndex *int         `json:"order_index,omitempty"`
	Score      *int         `json:"score,omitempty"`
}

// Validate は設問形式とテキストを検査する。
func (p *QuestionPayload) Validate() error {
	if !p.Type.Valid() {
		return NewInvalidQuestionTypeError(string(p.Type))
	}
	if p.Text == "" {
		return NewValidationError("text")
	}
	return nil
}

// QuestionUpdatePayload は設問更新のリクエストボディ。
type QuestionUpdatePayload struct {
	Type       *QuestionType `json:"type,omitempty"`
	Text       *string       `json:"text,omitempty"`
	OrderIndex *int          `json:"order_index,omitempty"`
	Score      *int          `json:"score,omitempty"`
}

// Validate は指定されたフィールドのみ検査する。
func (p *QuestionUpdatePayload) Validate() error {
	if p.Type != nil && !p.Type.Valid() {
		return NewInvalidQuestionTypeError(string(*p.Type))
	}
	if p.Text != nil && *p.Text == "" {
		return NewValidationError("text")
	}
	return nil
}

// OptionPayload は選択肢作成のリクエストボディ。
type OptionPayload struct {
	Text       string `json:"text"`
	IsCorrect  *bool  `json:"is_correct,omitempty"`
	OrderIndex *int   `json:"order_index,omitempty"`
	MatchKey   string `json:"match_key,omitempty"`
}

// Validate は必須フィールドを検査する。
func (p *OptionPayload) Validate() error {
	if p.Text == "" {
		return NewValidationError("text")
	}
	return nil
}

// OptionUpdatePayload は選択肢更新のリクエストボディ。
type OptionUpdatePayload struct {
	Text       *string `json:"text,omitempty"`
	IsCorrect  *bool   `json:"is_correct,omitempty"`
	OrderIndex *int    `json:"order_index,omitempty"`
	MatchKey   *string `json:"match_key,omitempty"`
}

// Validate は指定されたフィールドのみ検査する。
func (p *OptionUpdatePayload) Validate() error {
	if p.Text != nil && *p.Text == "" {
		return NewValidationError("text")
	}
	return nil
}

// Credentials はログイン入力を表す。永続化されず、ログイン処理でのみ使用する。
type Credentials struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}
