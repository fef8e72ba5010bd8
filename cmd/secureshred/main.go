package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"secureshred/internal/cli"
	"secureshred/internal/config"
	"secureshred/internal/erase"
	"secureshred/internal/logging"
	"secureshred/internal/reporting"
	"secureshred/internal/security"
	"secureshred/internal/system"
)

const (
	Version = "1.0.2"
	AppName = "SecureShred"

	// Exit codes
	EXIT_SUCCESS = 0
	EXIT_ERROR   = 1
	EXIT_WARNING = 2
)

var (
	cfg            *config.Config
	logger         *zap.Logger
	dryRun         bool
	verbose        bool
	force          bool
	configPath     string
	maxDurationStr string
	passes         int
	chunkSize      int
	maxSpeedMBps   float64
	renameFirst    bool
	saveReport     bool
	exitCode       = EXIT_SUCCESS
)

// CLI команды
var rootCmd = &cobra.Command{
	Use:     "secureshred",
	Short:   "SecureShred - безвозвратное уничтожение данных",
	Long:    "Утилита многопроходного затирания файлов и свободного места диска (zero/one/random/encrypted паттерны)",
	Version: Version,
}

var fileCmd = &cobra.Command{
	Use:   "file <путь>",
	Short: "Затереть и удалить файл",
	Args:  cobra.ExactArgs(1),
	RunE:  runFile,
}

var freeCmd = &cobra.Command{
	Use:   "free <каталог>",
	Short: "Затереть свободное место тома",
	Args:  cobra.ExactArgs(1),
	RunE:  runFree,
}

var infoCmd = &cobra.Command{
	Use:   "info <путь>",
	Short: "Показать информацию о томе",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup <каталог>",
	Short: "Удалить осиротевшие файлы-носители после прерванных запусков",
	Args:  cobra.ExactArgs(1),
	RunE:  runCleanup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Тестовый режим без записи")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Подробный вывод")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Путь к конфигурации")
	rootCmd.PersistentFlags().StringVar(&maxDurationStr, "max-duration", "", "Максимальное время работы (например: 30m, 2h)")
	rootCmd.PersistentFlags().BoolVarP(&force, "force", "f", false, "Пропустить подтверждение")
	rootCmd.PersistentFlags().BoolVar(&saveReport, "report", true, "Сохранять JSON отчёт о запуске")

	for _, cmd := range []*cobra.Command{fileCmd, freeCmd} {
		cmd.Flags().IntVarP(&passes, "passes", "p", 0, "Количество проходов (по умолчанию из конфигурации)")
		cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Размер чанка в байтах")
		cmd.Flags().Float64Var(&maxSpeedMBps, "max-speed", -1, "Ограничение скорости записи, MB/s (0 = без лимита)")
	}
	fileCmd.Flags().BoolVar(&renameFirst, "rename", true, "Случайные переименования перед удалением")

	rootCmd.AddCommand(fileCmd, freeCmd, infoCmd, cleanupCmd)
}

func setup(cmd *cobra.Command) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	// Флаги перекрывают конфигурацию
	if passes > 0 {
		cfg.Erase.Passes = passes
	}
	if chunkSize > 0 {
		cfg.Erase.ChunkSize = chunkSize
	}
	if maxSpeedMBps >= 0 {
		cfg.Erase.MaxSpeedMBps = maxSpeedMBps
	}
	if cmd.Flags().Changed("rename") {
		cfg.Erase.RenameBeforeDelete = renameFirst
	}
	if maxDurationStr != "" {
		cfg.Erase.MaxDuration = maxDurationStr
	}
	if cmd.Flags().Changed("report") {
		cfg.Reporting.Enabled = saveReport
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger = logging.New(cfg.Logging.Level, cfg.Logging.File, verbose)
	return nil
}

// runContext создает контекст с обработкой сигналов и лимитом времени
func runContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if d := cfg.GetMaxDuration(); d > 0 {
		ctx2, cancel := context.WithTimeout(ctx, d)
		return ctx2, func() { cancel(); stop() }
	}
	return ctx, stop
}

// confirm запрашивает подтверждение перед разрушающей операцией
func confirm(action string) bool {
	if force || !cfg.Security.RequireConfirmation {
		return true
	}
	fmt.Printf("%s. Данные будут уничтожены безвозвратно. Продолжить? [y/N]: ", action)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// watchProgress печатает прогресс в одну перерисовываемую строку
func watchProgress(progress <-chan erase.ProgressInfo, done *sync.WaitGroup, start time.Time) {
	defer done.Done()
	for info := range progress {
		elapsed := time.Since(start)
		speed := 0.0
		if elapsed.Seconds() > 0 {
			speed = float64(info.BytesWritten) / (1024 * 1024) / elapsed.Seconds()
		}
		fmt.Printf("\r[Pass %d] [%s] Записано: %s | Скорость: %.1f MB/s | Прошло: %02d:%02d:%02d",
			info.Pass, info.Pattern, humanBytes(info.BytesWritten), speed,
			int(elapsed.Hours()), int(elapsed.Minutes())%60, int(elapsed.Seconds())%60)
	}
	fmt.Println()
}

func runFile(cmd *cobra.Command, args []string) error {
	if err := setup(cmd); err != nil {
		return err
	}
	defer logger.Sync()

	target, err := system.ValidatePath(args[0])
	if err != nil {
		return err
	}
	if err := security.Checks(cfg, target); err != nil {
		return err
	}

	plan := erase.PassPlan{
		Passes:             cfg.Erase.Passes,
		ChunkSize:          cfg.Erase.ChunkSize,
		RenameBeforeDelete: cfg.Erase.RenameBeforeDelete,
	}

	if dryRun {
		logger.Info("DRY RUN: файл затёрт не будет",
			zap.String("target", target), zap.Int("passes", plan.Passes))
		return nil
	}

	if !confirm(fmt.Sprintf("Затирание файла %s (%d проходов)", target, plan.Passes)) {
		fmt.Println("Отменено пользователем")
		return nil
	}

	ctx, stop := runContext()
	defer stop()

	rep := execute(ctx, erase.ModeFile, target, plan)
	finalize(rep)
	return nil
}

func runFree(cmd *cobra.Command, args []string) error {
	if err := setup(cmd); err != nil {
		return err
	}
	defer logger.Sync()

	dir, err := system.ValidatePath(args[0])
	if err != nil {
		return err
	}
	if err := security.Checks(cfg, dir); err != nil {
		return err
	}
	if !system.CheckWriteAccess(dir) {
		return fmt.Errorf("каталог %s недоступен для записи", dir)
	}

	plan := erase.PassPlan{
		Passes:    cfg.Erase.Passes,
		ChunkSize: cfg.Erase.ChunkSize,
	}

	if dryRun {
		logger.Info("DRY RUN: свободное место затёрто не будет",
			zap.String("dir", dir), zap.Int("passes", plan.Passes))
		return nil
	}

	if !confirm(fmt.Sprintf("Затирание свободного места в %s (%d проходов)", dir, plan.Passes)) {
		fmt.Println("Отменено пользователем")
		return nil
	}

	ctx, stop := runContext()
	defer stop()

	rep := execute(ctx, erase.ModeFreeSpace, dir, plan)
	finalize(rep)
	return nil
}

// execute запускает движок с подключённым наблюдателем прогресса
func execute(ctx context.Context, mode erase.Mode, target string, plan erase.PassPlan) *erase.Report {
	progress := make(chan erase.ProgressInfo, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go watchProgress(progress, &wg, time.Now())

	eraser := erase.NewEraser(&erase.EraserConfig{
		Logger:       logger,
		Progress:     progress,
		MaxSpeedMBps: cfg.Erase.MaxSpeedMBps,
		SyncInterval: cfg.Erase.SyncInterval,
	})

	var rep *erase.Report
	if mode == erase.ModeFile {
		rep = eraser.EraseFile(ctx, target, plan)
	} else {
		rep = eraser.WipeFreeSpace(ctx, target, plan)
	}

	close(progress)
	wg.Wait()
	return rep
}

// finalize печатает сводку, сохраняет отчёт и выставляет код выхода
func finalize(rep *erase.Report) {
	if rep.Outcome == erase.OutcomeSuccess {
		fmt.Printf("✅ %s\n", rep.Message)
	} else {
		fmt.Printf("⚠️  %s\n", rep.Message)
		exitCode = EXIT_WARNING
	}
	fmt.Printf("Записано всего: %s за %s\n",
		humanBytes(rep.BytesWritten), rep.EndTime.Sub(rep.StartTime).Round(time.Second))
	for _, leftover := range rep.Leftover {
		fmt.Printf("Остаточный артефакт, требуется ручное удаление: %s\n", leftover)
	}

	report := reporting.Generate(rep, Version, dryRun, exitCode)
	if path, err := reporting.Save(report, cfg); err != nil {
		logger.Warn("Не удалось сохранить отчёт", zap.Error(err))
	} else if path != "" {
		fmt.Printf("Отчёт: %s\n", path)
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	if err := setup(cmd); err != nil {
		return err
	}
	defer logger.Sync()

	path, err := system.ValidatePath(args[0])
	if err != nil {
		return err
	}

	vol, err := system.Probe(path)
	if err != nil {
		return err
	}

	fmt.Printf("Том:              %s\n", vol.Path)
	fmt.Printf("Файловая система: %s\n", vol.FSType)
	fmt.Printf("Всего:            %s\n", humanBytes(int64(vol.TotalBytes)))
	fmt.Printf("Свободно:         %s\n", humanBytes(int64(vol.FreeBytes)))
	fmt.Printf("Доступ на запись: %v\n", system.CheckWriteAccess(path))
	if vol.CopyOnWrite {
		fmt.Println("⚠️  Copy-on-write ФС: перезапись не гарантирует уничтожение старых копий блоков")
	}
	if security.IsProtectedPath(cfg, path) {
		fmt.Println("⚠️  Путь находится в списке защищённых, затирание будет отклонено")
	}
	return nil
}

func runCleanup(cmd *cobra.Command, args []string) error {
	if err := setup(cmd); err != nil {
		return err
	}
	defer logger.Sync()

	dir, err := system.ValidatePath(args[0])
	if err != nil {
		return err
	}

	cleanup := cli.NewCleanupCommand(nil, logger)
	found, err := cleanup.Run(dir, dryRun)
	if err != nil {
		exitCode = EXIT_WARNING
		return err
	}
	fmt.Printf("Найдено носителей: %d\n", found)
	return nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(EXIT_ERROR)
	}
	os.Exit(exitCode)
}
