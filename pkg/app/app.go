package app

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/zurustar/smftool/pkg/cli"
	"github.com/zurustar/smftool/pkg/fileutil"
	"github.com/zurustar/smftool/pkg/logger"
	"github.com/zurustar/smftool/pkg/smf"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config *cli.Config
	log    *slog.Logger
	out    io.Writer
	text   *textDecoder
}

// New Applicationを作成（コマンドの出力先を指定）
func New(out io.Writer) *Application {
	if out == nil {
		out = os.Stdout
	}
	return &Application{out: out}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 0. .envファイル（存在する場合のみ）
	envLoaded := cli.LoadEnvFile()

	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	text, err := newTextDecoder(app.config.Charset)
	if err != nil {
		return err
	}
	app.text = text

	app.log.Debug("Application started", "command", app.config.Command, "input", app.config.InputPath, "dotenv", envLoaded)

	// 3. 入力ファイルの読み込み
	path, data, err := app.loadInput()
	if err != nil {
		return fmt.Errorf("failed to load input: %w", err)
	}

	file, err := smf.ReadFile(bytes.NewReader(data), smf.WithLogger(app.log))
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	app.log.Info("File loaded", "path", path, "format", file.Format, "tracks", len(file.Tracks), "division", file.Division)

	// 4. コマンドの実行
	switch app.config.Command {
	case cli.CommandDump:
		err = app.dump(path, file)
	case cli.CommandMerge:
		err = app.merge(file)
	case cli.CommandInfo:
		err = app.info(path, file, data)
	default:
		err = fmt.Errorf("unknown command: %s", app.config.Command)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", app.config.Command, err)
	}

	app.log.Debug("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// loadInput 入力ファイルを探して読み込む（大文字小文字を無視）
func (app *Application) loadInput() (string, []byte, error) {
	path, err := fileutil.ResolvePath(app.config.InputPath)
	if err != nil {
		return "", nil, err
	}
	if path != app.config.InputPath {
		app.log.Debug("Input resolved ignoring case", "requested", app.config.InputPath, "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return path, data, nil
}

// merge 全トラックを1トラックにまとめてフォーマット0で書き出す
func (app *Application) merge(file *smf.File) error {
	tracks := len(file.Tracks)
	if tracks == 0 {
		return fmt.Errorf("file has no tracks")
	}
	if err := file.Flatten(); err != nil {
		return err
	}

	// 全体をエンコードしてから書き出す
	data, err := file.Bytes()
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(app.config.OutputPath, data, 0644); err != nil {
		return err
	}

	app.log.Info("Tracks merged", "from", tracks, "events", file.Tracks[0].Len(), "output", app.config.OutputPath)
	fmt.Fprintf(app.out, "Merged %d tracks into %s (%d events, %d ticks)\n",
		tracks, app.config.OutputPath, file.Tracks[0].Len(), file.Duration())
	return nil
}
