package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, status := range OrderStatuses() {
		parsed, err := ParseOrderStatus(status.String())
		if err != nil {
			t.Fatalf("parse %q: %v", status, err)
		}
		if parsed != status {
			t.Fatalf("expected %q got %q", status, parsed)
		}
	}

	if _, err := ParseOrderStatus("Shipped"); err == nil {
		t.Fatal("status parsing must be case-sensitive")
	}
	if _, err := ParseOrderStatus("lost"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if !OrderStatusDelivered.IsTerminal() || !OrderStatusCancelled.IsTerminal() {
		t.Fatal("delivered and cancelled are terminal")
	}
	if OrderStatusPending.IsTerminal() || OrderStatusShipped.IsTerminal() {
		t.Fatal("pending and shipped are not terminal")
	}
}
