package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"optionScope/internal/model"
)

func TestJsonlWriterReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "trade_history.jsonl")
	writer := NewJsonlWriter(path)

	first := []model.TradeHistory{{Timestamp: 1, Action: model.ActionTradeOpen}, {Timestamp: 2, Action: model.ActionTradeClose}}
	if err := writer.WriteTradeHistory(first); err != nil {
		t.Fatalf("write: %v", err)
	}
	second := []model.TradeHistory{{Timestamp: 3, Action: model.ActionTradeSettle}}
	if err := writer.WriteTradeHistory(second); err != nil {
		t.Fatalf("write: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var got []model.TradeHistory
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry model.TradeHistory
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		got = append(got, entry)
	}
	if len(got) != 1 || got[0].Timestamp != 3 {
		t.Fatalf("unexpected content: %+v", got)
	}
}
