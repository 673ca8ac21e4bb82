// anubad-gui - desktop editor for Bangla mini-language programs
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	nativedialog "github.com/sqweek/dialog"

	"github.com/anubad-lang/anubad"
	"github.com/anubad-lang/anubad/internal/history"
	"github.com/anubad-lang/anubad/pkg/runner"
)

const windowTitle = "বাংলা মিনি কম্পাইলার"

const sampleProgram = `ধরি ক = ১০
যদি ক > ৫ হয়:
    দেখাও("ক বড়")
নাহলে:
    দেখাও("ক ছোট")
`

// editorState holds the window and the file being edited
type editorState struct {
	mu       sync.Mutex
	window   fyne.Window
	editor   *widget.Entry
	output   *widget.Label
	status   *widget.Label
	runner   *runner.Runner
	filePath string
	dirty    bool
}

// historyRecorder adapts the history store to the runner
type historyRecorder struct {
	store *history.Store
}

func (h historyRecorder) Record(ctx context.Context, source string, result anubad.Result, elapsed time.Duration) (string, error) {
	rec, err := h.store.Record(ctx, source, result, elapsed)
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func main() {
	debugMode := len(os.Args) > 1 && os.Args[1] == "-d"
	args := os.Args[1:]
	if debugMode {
		args = args[1:]
	}

	config, err := anubad.LoadOrCreateConfig(anubad.DefaultConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		config = anubad.DefaultConfig()
	}
	if debugMode {
		config.Debug = true
	}
	logger := anubad.NewLogger(config.Debug)
	engine := anubad.NewWithLogger(config, logger)

	opts := runner.Options{Engine: engine}
	if config.HistoryDB != "" {
		store, err := history.Open(config.HistoryDB, logger)
		if err != nil {
			logger.Warn(anubad.CatHistory, "History unavailable: %v", err)
		} else {
			defer store.Close()
			opts.Recorder = historyRecorder{store: store}
		}
	}

	fyneApp := app.NewWithID("org.anubad.editor")
	state := &editorState{
		window: fyneApp.NewWindow(windowTitle),
		runner: runner.New(opts),
	}
	state.build()

	if len(args) > 0 {
		if err := state.load(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading source: %v\n", err)
		}
	} else {
		state.editor.SetText(sampleProgram)
		state.setDirty(false)
	}

	state.window.Resize(fyne.NewSize(900, 650))
	state.window.ShowAndRun()
}

func (s *editorState) build() {
	s.editor = widget.NewMultiLineEntry()
	s.editor.TextStyle = fyne.TextStyle{Monospace: true}
	s.editor.SetPlaceHolder("এখানে কোড লিখুন...")
	s.editor.OnChanged = func(string) { s.setDirty(true) }

	s.output = widget.NewLabel("")
	s.output.Wrapping = fyne.TextWrapWord
	s.output.TextStyle = fyne.TextStyle{Monospace: true}

	s.status = widget.NewLabel("প্রস্তুত")

	s.runner.OnRunStart = func() {
		fyne.Do(func() {
			s.status.SetText("চলছে...")
		})
	}
	s.runner.OnRunEnd = func(result anubad.Result, display string) {
		fyne.Do(func() {
			s.output.SetText(display)
			s.status.SetText(statusText(result))
		})
	}

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.MediaPlayIcon(), s.run),
		widget.NewToolbarAction(theme.MediaStopIcon(), s.runner.Stop),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.FolderOpenIcon(), s.openDialog),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), s.saveDialog),
		widget.NewToolbarAction(theme.ContentClearIcon(), s.clear),
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.HelpIcon(), func() {
			dialog.ShowInformation("সাহায্য", anubad.KeywordHelp, s.window)
		}),
		widget.NewToolbarAction(theme.InfoIcon(), func() {
			dialog.ShowInformation("সম্পর্কে", anubad.AboutText, s.window)
		}),
	)

	split := container.NewVSplit(s.editor, container.NewVScroll(s.output))
	split.SetOffset(0.6)
	s.window.SetContent(container.NewBorder(toolbar, s.status, nil, nil, split))

	s.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyReturn,
		Modifier: fyne.KeyModifierShortcutDefault,
	}, func(fyne.Shortcut) { s.run() })
	s.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyS,
		Modifier: fyne.KeyModifierShortcutDefault,
	}, func(fyne.Shortcut) { s.saveDialog() })
}

func statusText(result anubad.Result) string {
	switch r := result.(type) {
	case *anubad.Output:
		return fmt.Sprintf("সম্পন্ন (%s ধাপ, %s)", anubad.ToLocalizedDigits(fmt.Sprint(r.Steps)), r.Duration.Round(time.Millisecond))
	case *anubad.CompileError:
		return "সিনট্যাক্স ত্রুটি, লাইন " + anubad.ToLocalizedDigits(fmt.Sprint(r.Line()))
	case *anubad.RuntimeError:
		return "এক্সিকিউশন ত্রুটি"
	case *anubad.TimeoutError:
		return "সময় শেষ"
	}
	return "প্রস্তুত"
}

func (s *editorState) run() {
	err := s.runner.Run(context.Background(), s.editor.Text, nil)
	if errors.Is(err, runner.ErrBusy) {
		s.status.SetText("একটি প্রোগ্রাম ইতিমধ্যে চলছে")
	}
}

func (s *editorState) clear() {
	s.editor.SetText("")
	s.output.SetText("")
	s.status.SetText("প্রস্তুত")
}

func (s *editorState) setDirty(dirty bool) {
	s.mu.Lock()
	s.dirty = dirty
	path := s.filePath
	s.mu.Unlock()

	title := windowTitle
	if path != "" {
		title = filepath.Base(path) + " - " + windowTitle
	}
	if dirty {
		title = "* " + title
	}
	s.window.SetTitle(title)
}

func (s *editorState) load(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	s.mu.Lock()
	s.filePath = path
	s.mu.Unlock()
	s.editor.SetText(string(content))
	s.setDirty(false)
	return nil
}

func (s *editorState) save(path string) error {
	if !strings.HasSuffix(path, ".bn") {
		path += ".bn"
	}
	if err := os.WriteFile(path, []byte(s.editor.Text), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	s.mu.Lock()
	s.filePath = path
	s.mu.Unlock()
	s.setDirty(false)
	return nil
}

// native dialogs block, so they run off the UI goroutine
func (s *editorState) openDialog() {
	go func() {
		path, err := nativedialog.File().Filter("বাংলা কোড", "bn").Title("ফাইল খুলুন").Load()
		if err != nil {
			s.reportDialogError(err)
			return
		}
		fyne.Do(func() {
			if err := s.load(path); err != nil {
				dialog.ShowError(err, s.window)
			}
		})
	}()
}

func (s *editorState) saveDialog() {
	s.mu.Lock()
	current := s.filePath
	s.mu.Unlock()

	go func() {
		builder := nativedialog.File().Filter("বাংলা কোড", "bn").Title("ফাইল সংরক্ষণ করুন")
		if current != "" {
			builder = builder.SetStartFile(current)
		}
		path, err := builder.Save()
		if err != nil {
			s.reportDialogError(err)
			return
		}
		fyne.Do(func() {
			if err := s.save(path); err != nil {
				dialog.ShowError(err, s.window)
				return
			}
			s.status.SetText("সংরক্ষিত: " + filepath.Base(path))
		})
	}()
}

func (s *editorState) reportDialogError(err error) {
	if errors.Is(err, nativedialog.ErrCancelled) {
		return
	}
	fyne.Do(func() {
		dialog.ShowError(err, s.window)
	})
}
