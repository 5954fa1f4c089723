package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Frame loader
		"Opened decoder for %s, loading %s":           "%s のデコーダを開きました。%s を読み込み中",
		"Reached end of %s at %.3fs":                  "%s の終端 %.3f 秒に到達しました",
		"Skipping corrupt frame at %.3fs in %s":       "%[2]s の %[1].3f 秒の破損フレームをスキップします",
		"Failed to open decoder for %s: %s":           "%s のデコーダを開けませんでした: %s",
		"Decoder failed for %s: %s":                   "%s のデコードに失敗しました: %s",
		"Failed to allocate %dx%d display buffer: %s": "%dx%d の表示バッファを確保できませんでした: %s",
		"Failed to upload frame at %.3fs: %s":         "%.3f 秒のフレーム転送に失敗しました: %s",
		"Failed to save debug frame: %s":              "デバッグフレームの保存に失敗しました: %s",
		"Failed to save stream info: %s":              "ストリーム情報の保存に失敗しました: %s",

		// Player
		"Starting player session %s on connector %d": "コネクタ %[2]d でプレイヤーセッション %[1]s を開始します",
		"Connector %d not ready, retrying":           "コネクタ %d の準備ができていません。再試行します",
		"Failed to update output: %s":                "出力の更新に失敗しました: %s",
		"Player session %s stopped":                  "プレイヤーセッション %s を停止しました",

		// Playback control
		"Cache window %.1fs behind, %.1fs ahead": "キャッシュ範囲: 後方 %.1f 秒、前方 %.1f 秒",
		"Playback finished at %.3fs":             "%.3f 秒で再生が終了しました",
		"Playback cancelled":                     "再生がキャンセルされました",
	})
}
