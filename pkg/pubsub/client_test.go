package pubsub

import "testing"

func TestResourceName(t *testing.T) {
	cases := []struct {
		name    string
		project string
		kind    string
		input   string
		want    string
	}{
		{"bare topic", "shop", "topics", "orders", "projects/shop/topics/orders"},
		{"full topic", "shop", "topics", "projects/other/topics/orders", "projects/other/topics/orders"},
		{"bare subscription", "shop", "subscriptions", " orders-sub ", "projects/shop/subscriptions/orders-sub"},
		{"empty name", "shop", "topics", "", ""},
		{"missing project", "", "topics", "orders", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResourceName(tc.project, tc.kind, tc.input); got != tc.want {
				t.Fatalf("ResourceName() = %q, want %q", got, tc.want)
			}
		})
	}
}
