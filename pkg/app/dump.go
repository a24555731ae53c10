package app

import (
	"fmt"
	"io"

	"github.com/zurustar/smftool/pkg/smf"
)

// dump ヘッダ、トラック情報、各イベントを絶対時間付きで出力する
func (app *Application) dump(path string, file *smf.File) error {
	w := app.out
	fmt.Fprintf(w, "File: %s\n", path)
	fmt.Fprintf(w, "Format: %d  Tracks: %d  Division: %s\n", file.Format, len(file.Tracks), divisionString(file.Division))

	for i, track := range file.Tracks {
		if err := app.dumpTrack(w, i, track); err != nil {
			return fmt.Errorf("track %d: %w", i, err)
		}
	}
	return nil
}

func (app *Application) dumpTrack(w io.Writer, index int, track *smf.Track) error {
	header := fmt.Sprintf("Track %d:", index)
	if name, ok := track.Name(); ok {
		decoded, err := app.text.Decode([]byte(name))
		if err != nil {
			return err
		}
		header += fmt.Sprintf(" name=%q", decoded)
	}
	if ch := track.Channel(); ch >= 0 {
		header += fmt.Sprintf(" channel=%d", ch)
	}
	header += fmt.Sprintf(" events=%d duration=%d", track.Len(), track.Timeline().Duration())
	if !track.HasEndOfTrack() {
		header += " (no end-of-track)"
	}
	fmt.Fprintln(w, header)

	times := track.Timeline().AbsoluteTimes()
	for i, e := range track.Timeline().All() {
		line, err := app.eventString(e)
		if err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		fmt.Fprintf(w, "%10d  %s\n", times[i], line)
	}
	return nil
}

// eventString テキストイベントは指定の文字コードで表示する
func (app *Application) eventString(e smf.Event) (string, error) {
	te, ok := e.(*smf.TextEvent)
	if !ok {
		return e.String(), nil
	}
	text, err := app.text.Decode(te.Data())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %q", te.Kind(), text), nil
}

func divisionString(division uint16) string {
	if division&0x8000 == 0 {
		return fmt.Sprintf("%d ticks/quarter", division)
	}
	// SMPTE: 上位バイトは負のフレームレート
	fps := -int(int8(division >> 8))
	return fmt.Sprintf("SMPTE %d fps, %d ticks/frame", fps, division&0xFF)
}
