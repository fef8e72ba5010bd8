package erase

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Mode режим затирания
type Mode string

const (
	ModeFile      Mode = "file"
	ModeFreeSpace Mode = "free-space"
)

// Outcome classifies the terminal state of a run.
type Outcome string

const (
	OutcomeSuccess        Outcome = "SUCCESS"
	OutcomePartialFailure Outcome = "PARTIAL_FAILURE"
)

// Статусы паттернов внутри прохода
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

// PassPlan описывает количество проходов и разбиение данных на чанки.
// Порядок паттернов фиксирован (DefaultSequence) и в план не входит.
type PassPlan struct {
	Passes             int
	ChunkSize          int
	RenameBeforeDelete bool // только для режима file
}

// Validate проверяет план на корректность
func (p PassPlan) Validate() error {
	if p.Passes < 1 {
		return errors.Newf("pass count must be at least 1, got %d", p.Passes)
	}
	if p.ChunkSize < minChunkSize {
		return errors.Newf("chunk size must be at least %d bytes, got %d", minChunkSize, p.ChunkSize)
	}
	return nil
}

// PatternReport результат одного паттерна в рамках прохода
type PatternReport struct {
	Pattern      string `json:"pattern"`
	Status       string `json:"status"`
	BytesWritten int64  `json:"bytes_written"`
	Error        string `json:"error,omitempty"`
}

// PassReport результат одного полного прохода
type PassReport struct {
	Pass     int             `json:"pass"`
	Patterns []PatternReport `json:"patterns"`
}

// Report накапливается в ходе запуска и возвращается вызывающему. Частичный
// результат никогда не выдаётся за полный успех: любой зафиксированный сбой
// переводит Outcome в PARTIAL_FAILURE.
type Report struct {
	Mode         Mode         `json:"mode"`
	Target       string       `json:"target"`
	Outcome      Outcome      `json:"outcome"`
	Message      string       `json:"message"`
	BytesWritten int64        `json:"bytes_written"`
	Passes       []PassReport `json:"passes"`
	Cancelled    bool         `json:"cancelled,omitempty"`
	// Leftover lists carrier files that survived best-effort cleanup and
	// require caller attention.
	Leftover  []string  `json:"leftover,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Err       error     `json:"-"`
}

// ProgressInfo информация о прогрессе затирания
type ProgressInfo struct {
	Mode         Mode
	Pass         int
	Pattern      string
	CurrentFile  string
	BytesWritten int64 // суммарно за запуск
}
