package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Starting encode":               "エンコードを開始します",
		"Starting decode":               "デコードを開始します",
		"Encode completed successfully": "エンコードが正常に完了しました",
		"Decode completed successfully": "デコードが正常に完了しました",
		"Output saved to %s":            "出力を %s に保存しました",
		"Summary saved to %s":           "サマリーを %s に保存しました",
		"Failed to write summary: %s":   "サマリーの書き込みに失敗しました: %s",
		"Interrupted, shutting down...":  "中断されました。シャットダウン中...",
		"Interrupted, keeping %d frames from complete GOPs": "中断されました。完了した GOP の %d フレームを保持します",

		"Encoded %d frames (%d I, %d P, %d B) into %d bytes": "%d フレーム (I %d, P %d, B %d) を %d バイトにエンコードしました",
		"Loaded %d frame records (%d bytes)":                 "%d 件のフレームレコードを読み込みました (%d バイト)",
		"Decoded %d frames (%s playback, %d skipped)":        "%d フレームをデコードしました (%s 再生, %d スキップ)",
		"Exported %d frames to %s":                           "%d フレームを %s に書き出しました",

		// Encoder component (debug)
		"Committed GOP %d (%d frames)":    "GOP %d を確定しました (%d フレーム)",
		"Encoded %d frames into %d bytes": "%d フレームを %d バイトにエンコードしました",

		// Decoder component (warn)
		"Skipping corrupt frame %d: %v": "破損したフレーム %d をスキップします: %v",

		// Store component (debug)
		"Wrote %s (%d bytes)": "%s を書き込みました (%d バイト)",

		// Errors
		"Failed to encode: %s":           "エンコードに失敗しました: %s",
		"Failed to decode: %s":           "デコードに失敗しました: %s",
		"Failed to load stream: %s":      "ストリームの読み込みに失敗しました: %s",
		"Failed to write output: %s":     "出力の書き込みに失敗しました: %s",
		"Failed to export frames: %s":    "フレームの書き出しに失敗しました: %s",
		"Failed to save debug output: %v": "デバッグ出力の保存に失敗しました: %v",
	})
}
