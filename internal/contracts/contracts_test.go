package contracts

import (
	"errors"
	"testing"
	"time"
)

func TestActionValid(t *testing.T) {
	for _, a := range []Action{Buy, Sell, Hold} {
		if !a.Valid() {
			t.Errorf("%s must be valid", a)
		}
	}
	for _, a := range []Action{"", "buy", "YOLO"} {
		if a.Valid() {
			t.Errorf("%q must be invalid", a)
		}
	}
}

func TestPriceSeriesHelpers(t *testing.T) {
	var empty PriceSeries
	if _, ok := empty.Latest(); ok {
		t.Error("empty series must have no latest point")
	}

	s := PriceSeries{
		{Date: time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC), NAV: 1.0},
		{Date: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), NAV: 1.1},
		{Date: time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC), NAV: 1.2},
	}

	latest, ok := s.Latest()
	if !ok || latest.NAV != 1.2 {
		t.Errorf("Latest = %+v, %v", latest, ok)
	}

	values := s.Values()
	if len(values) != 3 || values[0] != 1.0 || values[2] != 1.2 {
		t.Errorf("Values = %v", values)
	}

	tail := s.Tail(2)
	if len(tail) != 2 || tail[0].NAV != 1.1 {
		t.Errorf("Tail(2) = %v", tail)
	}
	if got := s.Tail(10); len(got) != 3 {
		t.Errorf("Tail(10) len = %d, want full series", len(got))
	}
}

func TestErrorWrapping(t *testing.T) {
	var err error = &InsufficientHistoryError{Have: 5, Need: 20}
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Error("InsufficientHistoryError must unwrap to the sentinel")
	}
	if errors.Is(err, ErrInvalidSignal) {
		t.Error("history error must not match the signal sentinel")
	}

	err = &InvalidSignalError{Track: "quant", Field: "confidence", Detail: "1.5 outside [0, 1]"}
	if !errors.Is(err, ErrInvalidSignal) {
		t.Error("InvalidSignalError must unwrap to the sentinel")
	}
}

func TestBatchResultHelpers(t *testing.T) {
	d := SynthesizedDecision{Action: Buy}
	b := BatchResult{
		Results: []InstrumentResult{
			{Code: "518880", Decision: &d},
			{Code: "000001", Err: "insufficient history: have 5 observations, need 20"},
		},
	}

	if b.Evaluated() != 1 {
		t.Errorf("Evaluated = %d, want 1", b.Evaluated())
	}

	r, ok := b.Find("000001")
	if !ok || r.Evaluated() {
		t.Errorf("Find(000001) = %+v, %v", r, ok)
	}
	if _, ok := b.Find("999999"); ok {
		t.Error("Find must miss unknown codes")
	}
}
