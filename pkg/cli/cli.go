package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// サブコマンド
const (
	CommandDump  = "dump"
	CommandMerge = "merge"
	CommandInfo  = "info"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	Command    string // サブコマンド（dump, merge, info）
	InputPath  string // 入力SMFファイルのパス
	OutputPath string // 出力先（mergeのみ）
	LogLevel   string // ログレベル（debug, info, warn, error）
	Charset    string // テキストイベントの文字コード（utf-8, shift_jis, latin1）
	ShowHelp   bool   // ヘルプ表示フラグ
}

var validCharsets = map[string]bool{
	"utf-8":     true,
	"shift_jis": true,
	"latin1":    true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("smftool", flag.ContinueOnError)

	config := &Config{}

	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.StringVar(&config.Charset, "charset", "", "テキストイベントの文字コード")
	fs.StringVar(&config.Charset, "c", "", "テキストイベントの文字コード（短縮形）")
	fs.StringVar(&config.OutputPath, "output", "", "出力ファイルのパス")
	fs.StringVar(&config.OutputPath, "o", "", "出力ファイルのパス（短縮形）")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からログレベルを取得（コマンドラインフラグが優先）
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	// 環境変数から文字コードを取得（コマンドラインフラグが優先）
	if config.Charset == "" {
		config.Charset = os.Getenv("SMF_CHARSET")
	}
	config.Charset = normalizeCharset(config.Charset)

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}
	if !validCharsets[config.Charset] {
		return nil, fmt.Errorf("invalid charset: %s (must be utf-8, shift_jis, or latin1)", config.Charset)
	}

	// ヘルプ表示時は位置引数を検証しない
	if config.ShowHelp {
		return config, nil
	}

	// 位置引数（サブコマンドと入力ファイル）
	if fs.NArg() < 1 {
		return nil, fmt.Errorf("missing command (dump, merge, or info)")
	}
	config.Command = strings.ToLower(fs.Arg(0))
	switch config.Command {
	case CommandDump, CommandMerge, CommandInfo:
	default:
		return nil, fmt.Errorf("unknown command: %s", fs.Arg(0))
	}

	if fs.NArg() < 2 {
		return nil, fmt.Errorf("%s: missing input file", config.Command)
	}
	if fs.NArg() > 2 {
		return nil, fmt.Errorf("%s: unexpected arguments: %s", config.Command, strings.Join(fs.Args()[2:], " "))
	}
	config.InputPath = fs.Arg(1)

	if config.Command == CommandMerge && config.OutputPath == "" {
		return nil, fmt.Errorf("merge: output file is required (-o)")
	}

	return config, nil
}

// normalizeCharset 文字コード名の表記ゆれを吸収する
func normalizeCharset(name string) string {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "_")) {
	case "", "utf8", "utf_8":
		return "utf-8"
	case "shift_jis", "sjis", "shiftjis", "cp932":
		return "shift_jis"
	case "latin1", "latin_1", "iso_8859_1", "iso8859_1":
		return "latin1"
	default:
		return name
	}
}

// LoadEnvFile .envファイルから環境変数を読み込む（省略時はカレントディレクトリの.env）
// 既に設定されている環境変数は上書きしない。読み込めた場合はtrueを返す
func LoadEnvFile(filenames ...string) bool {
	return godotenv.Load(filenames...) == nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// 値を取るフラグ（-o out.mid のような場合）は次の引数も追加
			if i+1 < len(args) && !strings.Contains(arg, "=") && takesValue(arg) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

// takesValue 値を伴うフラグかどうか
func takesValue(arg string) bool {
	switch strings.TrimLeft(arg, "-") {
	case "l", "log-level", "c", "charset", "o", "output":
		return true
	}
	return false
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `smftool - Standard MIDI File tool

Usage:
  smftool [options] <command> <file>

Commands:
  dump     ヘッダ、トラック情報、全イベントを絶対時間付きで表示
  merge    全トラックを1トラックにマージしてフォーマット0で出力（-o 必須）
  info     フォーマット、分解能、トラック数、演奏時間を表示

Options:
  -o, --output <file>         出力ファイルのパス（merge）
  -c, --charset <name>        テキストイベントの文字コード: utf-8, shift_jis, latin1（デフォルト: utf-8）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  -h, --help                  このヘルプを表示

Environment Variables:
  LOG_LEVEL=<level>           ログレベル
  SMF_CHARSET=<name>          テキストイベントの文字コード
  （カレントディレクトリの.envからも読み込む。既存の環境変数が優先）

Examples:
  smftool dump song.mid                     イベント一覧を表示
  smftool dump -c shift_jis song.mid        Shift_JISのトラック名を正しく表示
  smftool merge -o flat.mid song.mid        フォーマット0に変換
  smftool info song.mid                     演奏時間を表示
  LOG_LEVEL=debug smftool info song.mid     デバッグログを有効化
`)
}
