package app

import (
	"bytes"
	"fmt"
	"time"

	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/zurustar/smftool/pkg/smf"
)

// info ファイルの概要と演奏時間を出力する
func (app *Application) info(path string, file *smf.File, data []byte) error {
	w := app.out
	fmt.Fprintf(w, "File:      %s\n", path)
	fmt.Fprintf(w, "Format:    %d\n", file.Format)
	fmt.Fprintf(w, "Division:  %s\n", divisionString(file.Division))
	fmt.Fprintf(w, "Tracks:    %d\n", len(file.Tracks))
	fmt.Fprintf(w, "Ticks:     %d\n", file.Duration())

	tempos := file.TempoMap().Changes()
	fmt.Fprintf(w, "Tempo:     %.2f bpm", 60e6/float64(tempos[0].MicrosPerQuarter))
	if len(tempos) > 1 {
		fmt.Fprintf(w, " (%d changes)", len(tempos)-1)
	}
	fmt.Fprintln(w)

	if file.TicksPerQuarter() > 0 {
		fmt.Fprintf(w, "Length:    %s\n", formatLength(file.Length()))
	}

	// シーケンサから見た長さ（MeltySynthで解析できない場合は省略）
	if length, err := sequencerLength(data); err != nil {
		app.log.Warn("Sequencer could not parse file", "path", path, "error", err)
	} else {
		fmt.Fprintf(w, "Sequencer: %s\n", formatLength(length))
	}
	return nil
}

// sequencerLength MeltySynthのMIDIファイル解析による演奏時間
func sequencerLength(data []byte) (length time.Duration, err error) {
	// MeltySynthは不正な入力でpanicすることがある
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("meltysynth: %v", r)
		}
	}()

	midiFile, err := meltysynth.NewMidiFile(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to parse MIDI file: %w", err)
	}
	return midiFile.GetLength(), nil
}

func formatLength(d time.Duration) string {
	d = d.Round(time.Millisecond)
	minutes := int(d / time.Minute)
	seconds := (d % time.Minute).Seconds()
	return fmt.Sprintf("%d:%06.3f", minutes, seconds)
}
