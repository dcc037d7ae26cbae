package middleware

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScreenOf(t *testing.T) {
	cases := map[string]string{
		"/backoffice":                          "home",
		"/backoffice/pro/offerers/12/validate": "pro/offerers",
		"/backoffice/admin/bo-users":           "admin/bo-users",
		"/backoffice/bookings/3/cancel":        "bookings",
		"/backoffice/finance/incidents":        "finance",
		"/backoffice/pro":                      "pro",
	}
	for path, want := range cases {
		require.Equal(t, want, screenOf(path), path)
	}
}
