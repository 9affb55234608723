package router

import "testing"

func TestDeriveAdminPermissionModule(t *testing.T) {
	cases := map[string]string{
		"/admin/orders/:id/status":      "orders",
		"/admin/wallets/:user_id/top-up": "finance",
		"/admin/audit-logs":             "system",
		"/":                             "system",
	}
	for object, want := range cases {
		if got := deriveAdminPermissionModule(object); got != want {
			t.Fatalf("module(%s) want %s got %s", object, want, got)
		}
	}
}
