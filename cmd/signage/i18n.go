// Package main provides localization for the signage CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Play media files on fixed-mode display outputs.": "固定モードのディスプレイ出力でメディアファイルを再生します。",

		// Play command
		"Play a media file on a display output.":         "メディアファイルをディスプレイ出力で再生",
		"Media file to play (omit with --testcard).":     "再生するメディアファイル（--testcard 指定時は省略）",
		"Play the built-in test card instead of a file.": "ファイルの代わりに内蔵テストカードを再生",
		"Test card duration in seconds.":                 "テストカードの再生時間（秒）",
		"Seconds to cache ahead of the playhead.":        "再生位置より先行してキャッシュする秒数",
		"Seconds to keep cached behind the playhead.":    "再生位置より後方に保持する秒数",
		"YAML configuration file.":                       "YAML設定ファイル",
		"Enable debug output.":                           "デバッグ出力を有効化",
		"Directory for debug output.":                    "デバッグ出力のディレクトリ",
		"Log level (debug, info, warn, error).":          "ログレベル（debug, info, warn, error）",
		"Suppress all log output.":                       "全てのログ出力を抑制",

		// Info command
		"Show media file stream information.": "メディアファイルのストリーム情報を表示",
		"Media file to inspect.":              "調査するメディアファイル",
		"Print machine-readable JSON.":        "機械可読なJSONで出力",

		// Outputs command
		"List display connectors.": "ディスプレイコネクタを一覧表示",

		// Version command
		"Show version information.": "バージョン情報を表示",
		"signage version %s":        "signage バージョン %s",

		// Runtime messages
		"Playing %s":                    "%s を再生中",
		"Interrupted, shutting down...": "中断されました。シャットダウン中...",
	})
}
