package db

import "testing"

func TestOpen_InvalidDSN(t *testing.T) {
	for _, dsn := range []string{"", "invalid-dsn", "://localhost/test"} {
		pool, err := Open(dsn)
		if err == nil {
			if pool != nil {
				pool.Close()
			}
			t.Errorf("Open(%q) should return error", dsn)
			continue
		}
		if pool != nil {
			t.Errorf("Open(%q) should return nil pool on error", dsn)
		}
	}
}
