package erase

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"secureshred/internal/system"
)

// CarrierPrefix помечает временные файлы-носители, создаваемые при затирании
// свободного места. По префиксу команда cleanup находит осиротевшие файлы.
const CarrierPrefix = ".shred-"

// renameRounds число случайных переименований перед финальным удалением
const renameRounds = 5

const defaultSyncInterval = 512 * 1024 * 1024 // 512MB

// EraserConfig конфигурация движка затирания. Нулевые поля получают
// безопасные значения по умолчанию в NewEraser.
type EraserConfig struct {
	Fs           afero.Fs    // nil = реальная файловая система
	Rand         io.Reader   // nil = crypto/rand.Reader
	Logger       *zap.Logger // nil = no-op
	Progress     chan<- ProgressInfo
	MaxSpeedMBps float64
	SyncInterval int64 // байт между fsync при длинных заполнениях
	// Probe запрашивает ёмкость тома; результат только информационный.
	Probe func(path string) (*system.VolumeInfo, error)
}

// Eraser выполняет многопроходное затирание файлов и свободного места.
// Выполнение строго последовательное: диск — ограничивающий ресурс, и
// параллельные писатели только фрагментируют ввод-вывод и делают сигнал
// исчерпания неоднозначным. Конкурентные запуски по одной цели движком
// не координируются.
//
// Перезапись на уровне блочного API не даёт гарантий на SSD с
// wear-leveling и на copy-on-write файловых системах: контроллер или ФС
// могут сохранить теневые копии. Движок предупреждает об известных CoW
// системах, но не пытается это обойти.
type Eraser struct {
	fs           afero.Fs
	rand         io.Reader
	log          *zap.Logger
	progress     chan<- ProgressInfo
	maxSpeedMBps float64
	syncInterval int64
	probe        func(path string) (*system.VolumeInfo, error)
}

// NewEraser создает движок с заполнением значений по умолчанию
func NewEraser(cfg *EraserConfig) *Eraser {
	if cfg == nil {
		cfg = &EraserConfig{}
	}
	e := &Eraser{
		fs:           cfg.Fs,
		rand:         cfg.Rand,
		log:          cfg.Logger,
		progress:     cfg.Progress,
		maxSpeedMBps: cfg.MaxSpeedMBps,
		syncInterval: cfg.SyncInterval,
		probe:        cfg.Probe,
	}
	if e.fs == nil {
		e.fs = afero.NewOsFs()
	}
	if e.rand == nil {
		e.rand = cryptorand.Reader
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.syncInterval <= 0 {
		e.syncInterval = defaultSyncInterval
	}
	if e.probe == nil {
		e.probe = system.Probe
	}
	return e
}

// EraseFile затирает содержимое файла: passes проходов по фиксированному
// набору паттернов, затем опциональные случайные переименования и удаление.
// Ошибка записи в целевой файл фиксируется как "цель могла быть затёрта не
// полностью", но оставшиеся паттерны всё равно выполняются.
func (e *Eraser) EraseFile(ctx context.Context, path string, plan PassPlan) *Report {
	rep := &Report{Mode: ModeFile, Target: path, StartTime: time.Now()}

	if err := plan.Validate(); err != nil {
		return e.finishFailed(rep, err, "invalid pass plan")
	}

	info, err := e.fs.Stat(path)
	if err != nil {
		return e.finishFailed(rep, errors.Wrap(err, "stat target"), "target not accessible, nothing overwritten")
	}
	if info.IsDir() {
		return e.finishFailed(rep, errors.Newf("target is a directory: %s", path), "target not accessible, nothing overwritten")
	}
	size := info.Size()

	pw, err := NewPatternWriter(e.rand, plan.ChunkSize)
	if err != nil {
		return e.finishFailed(rep, err, "invalid pass plan")
	}

	e.log.Info("Начало затирания файла",
		zap.String("target", path),
		zap.Int64("size", size),
		zap.Int("passes", plan.Passes),
		zap.Int("chunk_size", plan.ChunkSize))

	var runErr *multierror.Error
	targetDamaged := false
	cancelled := false

	for pass := 1; pass <= plan.Passes && !cancelled; pass++ {
		pr := PassReport{Pass: pass}

		for _, p := range DefaultSequence {
			e.log.Info("Паттерн запущен",
				zap.String("target", path), zap.Int("pass", pass), zap.String("pattern", p.String()))

			n, err := e.overwriteOnce(ctx, path, size, pw, p, pass, rep)
			rep.BytesWritten += n

			pat := PatternReport{Pattern: p.String(), BytesWritten: n}
			switch {
			case err == nil:
				pat.Status = StatusCompleted
				e.log.Info("Паттерн завершён",
					zap.String("target", path), zap.Int("pass", pass),
					zap.String("pattern", p.String()), zap.Int64("bytes", n))
			case errors.Is(err, ErrCancelled):
				pat.Status = StatusCancelled
				cancelled = true
				rep.Cancelled = true
				runErr = multierror.Append(runErr, err)
				e.log.Warn("Паттерн отменён",
					zap.String("target", path), zap.Int("pass", pass), zap.String("pattern", p.String()))
			default:
				pat.Status = StatusFailed
				pat.Error = err.Error()
				runErr = multierror.Append(runErr, err)
				if !errors.Is(err, ErrCipher) {
					targetDamaged = true
				}
				e.log.Error("Паттерн завершился с ошибкой",
					zap.String("target", path), zap.Int("pass", pass),
					zap.String("pattern", p.String()), zap.Error(err))
			}
			pr.Patterns = append(pr.Patterns, pat)
			if cancelled {
				break
			}
		}
		rep.Passes = append(rep.Passes, pr)
	}

	if !cancelled {
		if err := e.removeTarget(path, plan.RenameBeforeDelete); err != nil {
			runErr = multierror.Append(runErr, err)
			e.log.Error("Не удалось удалить целевой файл", zap.String("target", path), zap.Error(err))
		}
	}

	rep.Err = runErr.ErrorOrNil()
	switch {
	case cancelled:
		rep.Outcome = OutcomePartialFailure
		rep.Message = "cancelled before completion; target file retained"
	case targetDamaged:
		rep.Outcome = OutcomePartialFailure
		rep.Message = "partially sanitized: target may not have been fully overwritten, see pass detail"
	case rep.Err != nil:
		rep.Outcome = OutcomePartialFailure
		rep.Message = "partially sanitized, see pass detail"
	default:
		rep.Outcome = OutcomeSuccess
		rep.Message = "target fully sanitized and removed"
	}

	return e.finish(rep)
}

// WipeFreeSpace затирает свободное место тома, на котором лежит dir.
// На каждый паттерн создаётся отдельный файл-носитель, заполняется до
// исчерпания и немедленно удаляется — носитель никогда не переживает свой
// паттерн.
func (e *Eraser) WipeFreeSpace(ctx context.Context, dir string, plan PassPlan) *Report {
	rep := &Report{Mode: ModeFreeSpace, Target: dir, StartTime: time.Now()}

	if err := plan.Validate(); err != nil {
		return e.finishFailed(rep, err, "invalid pass plan")
	}

	info, err := e.fs.Stat(dir)
	if err != nil {
		return e.finishFailed(rep, errors.Wrap(err, "stat target directory"), "target directory not accessible")
	}
	if !info.IsDir() {
		return e.finishFailed(rep, errors.Newf("target is not a directory: %s", dir), "target directory not accessible")
	}

	pw, err := NewPatternWriter(e.rand, plan.ChunkSize)
	if err != nil {
		return e.finishFailed(rep, err, "invalid pass plan")
	}

	// Ёмкость тома логируется для оператора; стоп-условием служит сигнал
	// исчерпания при записи, т.к. свободное место меняется по ходу заполнения
	if vol, err := e.probe(dir); err != nil {
		e.log.Warn("Не удалось определить свободное место, продолжаем", zap.String("dir", dir), zap.Error(err))
	} else {
		e.log.Info("Том перед затиранием",
			zap.String("dir", dir),
			zap.String("fs_type", vol.FSType),
			zap.Uint64("free_bytes", vol.FreeBytes),
			zap.Uint64("total_bytes", vol.TotalBytes))
		if vol.CopyOnWrite {
			e.log.Warn("Copy-on-write файловая система: перезапись не гарантирует уничтожение старых копий блоков",
				zap.String("fs_type", vol.FSType))
		}
	}

	var runErr *multierror.Error
	cancelled := false

	for pass := 1; pass <= plan.Passes && !cancelled; pass++ {
		pr := PassReport{Pass: pass}

		for _, p := range DefaultSequence {
			e.log.Info("Паттерн запущен",
				zap.String("dir", dir), zap.Int("pass", pass), zap.String("pattern", p.String()))

			n, leftover, err := e.fillOnce(ctx, dir, pw, p, pass, rep)
			rep.BytesWritten += n
			if leftover != "" {
				rep.Leftover = append(rep.Leftover, leftover)
			}

			pat := PatternReport{Pattern: p.String(), BytesWritten: n}
			switch {
			case err == nil:
				pat.Status = StatusCompleted
				e.log.Info("Паттерн завершён (том заполнен)",
					zap.String("dir", dir), zap.Int("pass", pass),
					zap.String("pattern", p.String()), zap.Int64("bytes", n))
			case errors.Is(err, ErrCancelled):
				pat.Status = StatusCancelled
				cancelled = true
				rep.Cancelled = true
				runErr = multierror.Append(runErr, err)
				e.log.Warn("Паттерн отменён",
					zap.String("dir", dir), zap.Int("pass", pass), zap.String("pattern", p.String()))
			default:
				pat.Status = StatusFailed
				pat.Error = err.Error()
				runErr = multierror.Append(runErr, err)
				e.log.Error("Паттерн завершился с ошибкой",
					zap.String("dir", dir), zap.Int("pass", pass),
					zap.String("pattern", p.String()), zap.Error(err))
			}
			pr.Patterns = append(pr.Patterns, pat)
			if cancelled {
				break
			}
		}
		rep.Passes = append(rep.Passes, pr)
	}

	rep.Err = runErr.ErrorOrNil()
	switch {
	case cancelled:
		rep.Outcome = OutcomePartialFailure
		rep.Message = "cancelled before completion"
	case rep.Err != nil:
		rep.Outcome = OutcomePartialFailure
		rep.Message = "free space partially sanitized, see pass detail"
	case len(rep.Leftover) > 0:
		rep.Outcome = OutcomePartialFailure
		rep.Message = fmt.Sprintf("free space sanitized, but %d carrier file(s) could not be removed", len(rep.Leftover))
	default:
		rep.Outcome = OutcomeSuccess
		rep.Message = "free space fully sanitized"
	}

	return e.finish(rep)
}

// overwriteOnce выполняет одну перезапись целевого файла одним паттерном
func (e *Eraser) overwriteOnce(ctx context.Context, path string, size int64, pw *PatternWriter, p Pattern, pass int, rep *Report) (int64, error) {
	f, err := e.fs.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return 0, errors.Wrap(err, "open target")
	}

	n, werr := pw.WriteBounded(ctx, e.wrapWriter(f), p, size, e.sink(f, rep, ModeFile, pass, p, path))
	if serr := f.Sync(); serr != nil && werr == nil {
		werr = errors.Wrap(serr, "sync target")
	}
	if cerr := f.Close(); cerr != nil && werr == nil {
		werr = errors.Wrap(cerr, "close target")
	}
	return n, werr
}

// fillOnce создаёт носитель, заполняет его до исчерпания и удаляет.
// Возвращает путь носителя, если удаление не удалось.
func (e *Eraser) fillOnce(ctx context.Context, dir string, pw *PatternWriter, p Pattern, pass int, rep *Report) (int64, string, error) {
	name := filepath.Join(dir, fmt.Sprintf("%s%s-p%d-%s.tmp", CarrierPrefix, uuid.NewString(), pass, p))

	f, err := e.fs.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC|os.O_EXCL, 0o600)
	if err != nil {
		return 0, "", errors.Wrap(err, "create carrier")
	}
	e.log.Info("Носитель создан", zap.String("carrier", name))

	n, werr := pw.WriteUntilFull(ctx, e.wrapWriter(f), p, e.sink(f, rep, ModeFreeSpace, pass, p, name))
	if serr := f.Sync(); serr != nil && werr == nil && !IsExhausted(serr) {
		werr = errors.Wrap(serr, "sync carrier")
	}
	if cerr := f.Close(); cerr != nil {
		e.log.Warn("Ошибка закрытия носителя", zap.String("carrier", name), zap.Error(cerr))
	}

	// Удаление носителя — best effort: сбой фиксируется как остаточный
	// артефакт, но запуск продолжается
	leftover := ""
	if rmErr := e.fs.Remove(name); rmErr != nil {
		leftover = name
		e.log.Warn("Не удалось удалить носитель", zap.String("carrier", name), zap.Error(rmErr))
	} else {
		e.log.Info("Носитель удалён", zap.String("carrier", name), zap.Int64("bytes", n))
	}

	return n, leftover, werr
}

// removeTarget удаляет целевой файл, опционально замешивая имя в журнале
// каталога серией случайных переименований
func (e *Eraser) removeTarget(path string, renameFirst bool) error {
	current := path
	if renameFirst {
		dir := filepath.Dir(path)
		for i := 0; i < renameRounds; i++ {
			raw := make([]byte, 8)
			if _, err := io.ReadFull(e.rand, raw); err != nil {
				break // имя не критично, удаляем под текущим
			}
			next := filepath.Join(dir, hex.EncodeToString(raw))
			if err := e.fs.Rename(current, next); err != nil {
				e.log.Warn("Ошибка переименования перед удалением", zap.String("target", current), zap.Error(err))
				break
			}
			current = next
		}
	}
	if err := e.fs.Remove(current); err != nil {
		return errors.Wrap(err, "remove target")
	}
	e.log.Info("Целевой файл удалён", zap.String("original", path), zap.String("final_name", current))
	return nil
}

// sink возвращает callback для учёта прогресса: периодический fsync и
// неблокирующая отправка события наблюдателю. runBase — байты, записанные
// до начала текущего паттерна.
func (e *Eraser) sink(f afero.File, rep *Report, mode Mode, pass int, p Pattern, file string) func(int64) {
	runBase := rep.BytesWritten
	var patternBytes, sinceSync int64
	return func(n int64) {
		patternBytes += n
		sinceSync += n
		if sinceSync >= e.syncInterval {
			if err := f.Sync(); err == nil {
				sinceSync = 0
			}
		}
		e.emit(ProgressInfo{
			Mode:         mode,
			Pass:         pass,
			Pattern:      p.String(),
			CurrentFile:  file,
			BytesWritten: runBase + patternBytes,
		})
	}
}

// emit отправляет событие прогресса, никогда не блокируя цикл записи.
// Медленный потребитель теряет события, а не тормозит затирание.
func (e *Eraser) emit(info ProgressInfo) {
	if e.progress == nil {
		return
	}
	select {
	case e.progress <- info:
	default:
	}
}

func (e *Eraser) wrapWriter(f afero.File) io.Writer {
	if e.maxSpeedMBps > 0 {
		return NewThrottledWriter(f, e.maxSpeedMBps)
	}
	return f
}

func (e *Eraser) finish(rep *Report) *Report {
	rep.EndTime = time.Now()
	e.log.Info("Затирание завершено",
		zap.String("mode", string(rep.Mode)),
		zap.String("target", rep.Target),
		zap.String("outcome", string(rep.Outcome)),
		zap.Int64("bytes_written", rep.BytesWritten),
		zap.Duration("duration", rep.EndTime.Sub(rep.StartTime)))
	return rep
}

func (e *Eraser) finishFailed(rep *Report, err error, msg string) *Report {
	rep.Outcome = OutcomePartialFailure
	rep.Message = msg
	rep.Err = err
	e.log.Error("Затирание не выполнено", zap.String("target", rep.Target), zap.Error(err))
	return e.finish(rep)
}
