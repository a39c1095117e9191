package diary

import (
	"errors"
	"time"
)

// Sentiment labels produced by the analyzer.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
	SentimentMixed    = "mixed"
)

var (
	// ErrNothingStaged indicates narrative generation was requested with no staged questionnaire.
	ErrNothingStaged = errors.New("diary: no questionnaire staged")
	// ErrPageOutOfRange indicates a listing request for a page beyond the stored records.
	ErrPageOutOfRange = errors.New("diary: page out of range")
)

// Questionnaire is the single staged form submission feeding narrative generation.
// At most one row is live at a time; a new submission replaces any existing one.
type Questionnaire struct {
	ID             uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Gender         string `gorm:"column:gender;type:char(1)"`
	Age            string `gorm:"column:age;size:255"`
	TodaysEvent    string `gorm:"column:todays_event;type:text"`
	MemorableThing string `gorm:"column:memorable_thing;type:text"`
	OneWord        string `gorm:"column:one_word;type:text"`
}

// TableName provides the explicit table binding for GORM.
func (Questionnaire) TableName() string {
	return "form_data"
}

// Record is the durable composite result of one completed pipeline run.
// Rows are append-only; the referenced blob is written before the row.
type Record struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Username    string    `gorm:"column:username;size:255"`
	Diaries     string    `gorm:"column:diaries;type:text"`
	ImageName   string    `gorm:"column:image_name;size:255"`
	AnaResult   string    `gorm:"column:ana_result;size:255"`
	AnaPositive float64   `gorm:"column:ana_positive"`
	AnaNeutral  float64   `gorm:"column:ana_neutral"`
	AnaNegative float64   `gorm:"column:ana_negative"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Record) TableName() string {
	return "ai_diaries"
}

// Blog is a static listing entry maintained outside the pipeline.
type Blog struct {
	ID          uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string `gorm:"column:name;size:255;not null"`
	URL         string `gorm:"column:url;size:255;not null"`
	ImageName   string `gorm:"column:image_name;size:255;not null"`
	Description string `gorm:"column:description;type:text;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Blog) TableName() string {
	return "blogs"
}
