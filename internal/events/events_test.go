package events

import "testing"

func TestRecorder_Find(t *testing.T) {
	var rec Recorder
	rec.Emit(PlaybackStarted{Text: "KM"})
	rec.Emit(LevelChanged{From: 2, To: 3, Auto: true})
	rec.Emit(PlaybackEnded{})
	rec.Emit(LevelChanged{From: 3, To: 2})

	changes := Find[LevelChanged](&rec)
	if len(changes) != 2 {
		t.Fatalf("Find[LevelChanged] = %d events, want 2", len(changes))
	}
	if !changes[0].Up() || changes[1].Up() {
		t.Errorf("Up() = %v, %v; want true, false", changes[0].Up(), changes[1].Up())
	}

	rec.Reset()
	if len(rec.Events()) != 0 {
		t.Error("Reset() kept events")
	}
}

func TestSinkFunc(t *testing.T) {
	var got Event
	sink := SinkFunc(func(e Event) { got = e })
	sink.Emit(JinglePlayed{})
	if _, ok := got.(JinglePlayed); !ok {
		t.Errorf("SinkFunc received %T, want JinglePlayed", got)
	}
}

func TestWarning_String(t *testing.T) {
	w := Warning{Kind: StorageLoad, Message: "using defaults"}
	if w.String() != "STORAGE_LOAD: using defaults" {
		t.Errorf("String() = %q", w.String())
	}
}
