package model

import (
	"reflect"
	"testing"
)

func TestRosterRecords(t *testing.T) {
	flat := []string{
		"0", "1700000000", "10", "1", "2", "0", "5",
		"1", "1700003600", "11", "1", "2", "1", "6",
	}

	records := RosterRecords(flat)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	expiry, err := records[1].Expiry()
	if err != nil {
		t.Fatalf("expiry: %v", err)
	}
	if expiry != 1700003600 {
		t.Fatalf("expiry mismatch: %d", expiry)
	}

	if got := FlattenRoster(records); !reflect.DeepEqual(got, flat) {
		t.Fatalf("flatten mismatch: %v != %v", got, flat)
	}
}

func TestRosterExpiryInvalid(t *testing.T) {
	rec := RosterRecord{"0", "0x10"}
	if _, err := rec.Expiry(); err == nil {
		t.Fatalf("expected error for hex expiry")
	}
}

func TestEventID(t *testing.T) {
	ev := Event{TransactionHash: "0xabc", EventIndex: 3}
	if ev.ID() != "0xabc:3" {
		t.Fatalf("unexpected id: %s", ev.ID())
	}
}

func TestActions(t *testing.T) {
	for _, action := range []string{ActionTradeOpen, ActionTradeClose, ActionTradeSettle, ActionDepositLiquidity, ActionWithdrawLiquidity} {
		if !IsTradeAction(action) {
			t.Fatalf("%s should be a trade action", action)
		}
	}
	for _, action := range []string{"ExpireOptionTokenForPool", "Upgrade", ""} {
		if IsTradeAction(action) {
			t.Fatalf("%s should not be a trade action", action)
		}
	}
	if !IsLiquidityAction(ActionWithdrawLiquidity) || IsLiquidityAction(ActionTradeOpen) {
		t.Fatalf("liquidity action mismatch")
	}
}
