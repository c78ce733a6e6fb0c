package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/bank"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/logger"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/service"
	"github.com/stemsi/exstem-quiz/internal/timer"
	"github.com/stemsi/exstem-quiz/internal/tui"
	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "quiz:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg := config.Load()

	fs := flag.NewFlagSet("quiz", flag.ContinueOnError)
	fs.SetOutput(stderr)
	mode := fs.String("mode", string(model.ModeQuiz), "quiz (untimed) or exam (timed)")
	bankPath := fs.String("bank", cfg.QuestionBankPath, "question bank file (.yaml or .json); empty uses the built-in bank")
	reducedMotion := fs.Bool("reduced-motion", cfg.ReducedMotion, "show the heading without typing it out")
	noColor := fs.Bool("no-color", os.Getenv("NO_COLOR") != "", "disable colors")
	logPath := fs.String("log", "", "write logs to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !isTerminal(stdout) {
		return fmt.Errorf("stdout is not a terminal")
	}

	log, closeLog, err := openLog(*logPath, cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	qb, err := bank.LoadOrDefault(*bankPath)
	if err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}

	sessions, err := service.NewSessionService(service.SessionOptions{
		Questions:    qb.Questions,
		ExamDuration: cfg.ExamDuration,
		Scheduler:    timer.TickerScheduler{},
		Log:          log,
	})
	if err != nil {
		return err
	}
	defer sessions.Shutdown()

	m, err := tui.NewModel(sessions, tui.Options{
		Title:         qb.Title,
		Mode:          model.Mode(*mode),
		TypingSpeed:   cfg.TypingSpeed,
		ReducedMotion: *reducedMotion,
		NoColor:       *noColor,
	})
	if err != nil {
		return fmt.Errorf("start %s: %w", *mode, err)
	}

	log.Info().Str("session_id", m.SessionID().String()).Str("mode", *mode).Msg("Terminal session started")

	if _, err := tea.NewProgram(m, tea.WithOutput(stdout), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}

// openLog logs to path, or nowhere when path is empty: the UI owns the terminal.
func openLog(path string, cfg *config.Config) (zerolog.Logger, func(), error) {
	if path == "" {
		return zerolog.Nop(), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	return logger.SetupTo(f, cfg.LogLevel, "json"), func() { f.Close() }, nil
}

// isTerminal inspects stdout for TTY support.
func isTerminal(out io.Writer) bool {
	if file, ok := out.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	if fder, ok := out.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(fder.Fd()))
	}
	return false
}
