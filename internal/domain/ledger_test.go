package domain_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/doeshing/fieldx/internal/domain"
)

func record(model, result string, fields ...string) domain.ExtractionRecord {
	return domain.NewExtractionRecord(domain.RecordInput{
		Model:      model,
		Fields:     fields,
		ResultText: result,
	}, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

func TestLedger_LengthIsBoundedByCapacity(t *testing.T) {
	for pushes := 0; pushes <= 6; pushes++ {
		ledger := domain.NewLedger(domain.DefaultHistoryCapacity)
		for i := 0; i < pushes; i++ {
			ledger.Push(record("m", "r"))
		}
		want := pushes
		if want > 2 {
			want = 2
		}
		if ledger.Len() != want {
			t.Errorf("after %d pushes Len() = %d, want %d", pushes, ledger.Len(), want)
		}
	}
}

func TestLedger_EmptyHasNothingToShow(t *testing.T) {
	ledger := domain.NewLedger(0)

	if _, ok := ledger.Latest(); ok {
		t.Error("Latest() on empty ledger reported a record")
	}
	if _, ok := ledger.Previous(); ok {
		t.Error("Previous() on empty ledger reported a record")
	}
	if ledger.State() != domain.LedgerEmpty {
		t.Errorf("State() = %s, want %s", ledger.State(), domain.LedgerEmpty)
	}
	if ledger.Capacity() != domain.DefaultHistoryCapacity {
		t.Errorf("Capacity() = %d, want default %d", ledger.Capacity(), domain.DefaultHistoryCapacity)
	}
}

func TestLedger_PreviousEmptyAfterOnePush(t *testing.T) {
	ledger := domain.NewLedger(2)
	r1 := record("m1", "A", "Date")
	ledger.Push(r1)

	latest, ok := ledger.Latest()
	if !ok {
		t.Fatal("Latest() missing after push")
	}
	if !reflect.DeepEqual(latest, r1) {
		t.Errorf("Latest() = %+v, want %+v", latest, r1)
	}
	if _, ok := ledger.Previous(); ok {
		t.Error("Previous() should be empty after a single push")
	}
	if ledger.State() != domain.LedgerPartial {
		t.Errorf("State() = %s, want %s", ledger.State(), domain.LedgerPartial)
	}
}

func TestLedger_ThirdPushEvictsOldest(t *testing.T) {
	ledger := domain.NewLedger(2)
	r1 := record("m1", "R1")
	r2 := record("m2", "R2")
	r3 := record("m3", "R3")

	ledger.Push(r1)
	ledger.Push(r2)
	ledger.Push(r3)

	latest, _ := ledger.Latest()
	previous, _ := ledger.Previous()
	if !reflect.DeepEqual(latest, r3) {
		t.Errorf("Latest() = %+v, want R3", latest)
	}
	if !reflect.DeepEqual(previous, r2) {
		t.Errorf("Previous() = %+v, want R2", previous)
	}
	for _, rec := range ledger.Records() {
		if rec.ResultText == "R1" {
			t.Fatal("R1 still reachable after eviction")
		}
	}
	if ledger.State() != domain.LedgerFull {
		t.Errorf("State() = %s, want %s", ledger.State(), domain.LedgerFull)
	}
}

func TestLedger_ExampleScenario(t *testing.T) {
	ledger := domain.NewLedger(2)
	ledger.Push(record("m1", "A", "Date"))
	ledger.Push(record("m2", "B", "Date", "Amount"))

	latest, _ := ledger.Latest()
	previous, _ := ledger.Previous()
	if latest.ResultText != "B" || latest.Model != "m2" {
		t.Errorf("Latest() = %+v, want model m2 result B", latest)
	}
	if previous.ResultText != "A" || previous.Model != "m1" {
		t.Errorf("Previous() = %+v, want model m1 result A", previous)
	}
	if !reflect.DeepEqual(latest.Fields, []string{"Date", "Amount"}) {
		t.Errorf("Latest().Fields = %v", latest.Fields)
	}
}

func TestLedger_FieldSnapshotSurvivesCallerMutation(t *testing.T) {
	live := []string{"Date", "Amount"}
	rec := domain.NewExtractionRecord(domain.RecordInput{Model: "m", Fields: live, ResultText: "x"}, time.Now())

	ledger := domain.NewLedger(2)
	ledger.Push(rec)

	live[0] = "Changed"
	live = append(live, "Extra")
	rec.Fields[1] = "AlsoChanged"

	latest, _ := ledger.Latest()
	if !reflect.DeepEqual(latest.Fields, []string{"Date", "Amount"}) {
		t.Fatalf("ledger record fields mutated: %v", latest.Fields)
	}

	latest.Fields[0] = "ReaderMutation"
	again, _ := ledger.Latest()
	if again.Fields[0] != "Date" {
		t.Fatalf("mutating a returned record leaked into the ledger: %v", again.Fields)
	}
}

func TestLedger_RecordsNewestFirst(t *testing.T) {
	ledger := domain.NewLedger(3)
	for _, result := range []string{"a", "b", "c", "d"} {
		ledger.Push(record("m", result))
	}

	var got []string
	for _, rec := range ledger.Records() {
		got = append(got, rec.ResultText)
	}
	if want := []string{"d", "c", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Records() = %v, want %v", got, want)
	}
}

func TestLedger_CapacityOne(t *testing.T) {
	ledger := domain.NewLedger(1)
	ledger.Push(record("m", "first"))
	ledger.Push(record("m", "second"))

	latest, _ := ledger.Latest()
	if latest.ResultText != "second" {
		t.Errorf("Latest() = %q, want second", latest.ResultText)
	}
	if _, ok := ledger.Previous(); ok {
		t.Error("Previous() should never be present with capacity 1")
	}
}

func TestNewExtractionRecord_Normalizes(t *testing.T) {
	rec := domain.NewExtractionRecord(domain.RecordInput{WordCountLimit: -5}, time.Now())
	if rec.WordCountLimit != 0 {
		t.Errorf("WordCountLimit = %d, want 0", rec.WordCountLimit)
	}
	if rec.OutputStyle != domain.StyleParagraph {
		t.Errorf("OutputStyle = %q, want %q", rec.OutputStyle, domain.StyleParagraph)
	}
}
